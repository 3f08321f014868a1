package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/apperrors"
	app "berry-quality/internal/application"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/infrastructure/imagecodec"
	"berry-quality/internal/logger"
)

const (
	msgStart = `👋 Привет! Я оцениваю качество клубники по фотографии.

📸 Отправьте фото (или файл изображения), и я найду ягоды, оценю зрелость, сахаристость (Brix) и товарность.

📋 Команды:
/check — начать проверку
/detail x y — подробности по ягоде в точке
/settings — текущие настройки
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото ягод
2️⃣ Бот найдёт клубнику и посчитает признаки
3️⃣ Вы получите размеченное фото и сводку

💡 Отправляйте снимок файлом с именем вида 2021_0625_171234_xxx.jpg, чтобы Brix считался по климату на момент съёмки.

⚙️ Настройки:
/detector color|remote-color|remote-yolox|cloud-ml — способ поиска
/color Ripeness|Brix|Marketability|Roundness|Smoothness — цвет рамок
/text on|off — подписи над рамками
/attr <признак> — добавить или убрать признак из подписей
/target <1..100> — целевая зрелость, %
/detail x y — подробности по ягоде в точке (x, y)`

	msgAwaitingPhoto   = "📸 Отправьте фото клубники для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото клубники."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgBusy            = "⏳ Предыдущее фото ещё обрабатывается, это пропущено."
	msgNoStrawberries  = "🔍 Клубника не найдена."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgNotImage        = "⚠️ Файл не похож на изображение."
	msgDetailUsage     = "Использование: /detail x y (координаты на размеченном фото)"
	msgNoResult        = "Сначала отправьте фото."
	msgNoSegment       = "В этой точке ягоды нет."
	msgSaved           = "✅ Сохранено."

	maxSummaryLines = 20
)

// Bot представляет Telegram-бота
type Bot struct {
	api     *tgbotapi.BotAPI
	users   *app.UserService
	quality *app.QualityService
	http    *http.Client
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, quality *app.QualityService, timeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.WithField("account", api.Self.UserName).Info("telegram bot authorized")

	return &Bot{
		api:     api,
		users:   users,
		quality: quality,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Каждое сообщение обрабатывается в своей горутине, кадры одного пользователя не накапливаются.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		logger.WithError(err).Error("failed to get user")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, photo.FileID, "")
		return
	}

	if msg.Document != nil {
		if !strings.HasPrefix(msg.Document.MimeType, "image/") {
			b.sendMessage(msg.Chat.ID, msgNotImage)
			return
		}
		b.handleImage(ctx, msg, msg.Document.FileID, msg.Document.FileName)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.setState(ctx, msg, entity.StateMainMenu)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		b.setState(ctx, msg, entity.StateAwaitingPhoto)
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "cancel":
		b.setState(ctx, msg, entity.StateMainMenu)
		b.sendMessage(chatID, msgCancelled)

	case "settings":
		b.sendMessage(chatID, FormatSettings(user.Preferences))

	case "detector":
		b.updateSetting(chatID, args, func(arg string) (*entity.User, error) {
			return b.users.SetDetector(ctx, msg.From.ID, chatID, arg)
		})

	case "color":
		b.updateSetting(chatID, args, func(arg string) (*entity.User, error) {
			return b.users.SetBoxColor(ctx, msg.From.ID, chatID, arg)
		})

	case "attr":
		b.updateSetting(chatID, args, func(arg string) (*entity.User, error) {
			return b.users.ToggleAttribute(ctx, msg.From.ID, chatID, arg)
		})

	case "text":
		b.updateSetting(chatID, args, func(arg string) (*entity.User, error) {
			on, err := ParseSwitch(arg)
			if err != nil {
				return nil, err
			}
			return b.users.SetDisplayText(ctx, msg.From.ID, chatID, on)
		})

	case "target":
		b.updateSetting(chatID, args, func(arg string) (*entity.User, error) {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, apperrors.NewValidationError("target must be a number", err)
			}
			return b.users.SetTargetRipeness(ctx, msg.From.ID, chatID, v)
		})

	case "detail":
		x, y, err := ParsePoint(args)
		if err != nil {
			b.sendMessage(chatID, msgDetailUsage)
			return
		}
		b.handleDetail(ctx, msg, x, y)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) setState(ctx context.Context, msg *tgbotapi.Message, state entity.UserState) {
	if _, err := b.users.SetState(ctx, msg.From.ID, msg.Chat.ID, state); err != nil {
		logger.WithError(err).Warn("failed to update user state")
	}
}

func (b *Bot) updateSetting(chatID int64, args []string, apply func(arg string) (*entity.User, error)) {
	if len(args) == 0 {
		b.sendMessage(chatID, msgHelp)
		return
	}
	user, err := apply(args[0])
	if err != nil {
		b.sendMessage(chatID, "⚠️ "+userMessage(err))
		return
	}
	b.sendMessage(chatID, msgSaved+"\n\n"+FormatSettings(user.Preferences))
}

// handleImage скачивает изображение, прогоняет конвейер и отвечает размеченным фото
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, fileName string) {
	chatID := msg.Chat.ID
	log := logger.WithFields(logrus.Fields{"user_id": msg.From.ID, "file": fileName})

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.WithError(err).Error("failed to download photo")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	img, _, err := imagecodec.Decode(data)
	if err != nil {
		log.WithError(err).Warn("failed to decode photo")
		b.sendMessage(chatID, msgNotImage)
		return
	}

	b.sendMessage(chatID, msgProcessing)
	out, err := b.quality.Process(ctx, app.ProcessRequest{
		UserID:   msg.From.ID,
		ChatID:   chatID,
		Image:    img,
		FileName: fileName,
	})
	if err != nil {
		if errors.Is(err, app.ErrBusy) {
			b.sendMessage(chatID, msgBusy)
			return
		}
		log.WithError(err).Error("failed to process photo")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	if len(out.Result.Segments) == 0 {
		b.sendMessage(chatID, msgNoStrawberries)
		return
	}
	jpeg, err := imagecodec.EncodeJPEG(out.Result.Annotated)
	if err != nil {
		log.WithError(err).Error("failed to encode result")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	user, err := b.users.Get(ctx, msg.From.ID, chatID)
	if err != nil {
		log.WithError(err).Warn("failed to get user")
		return
	}
	b.sendPhoto(chatID, "result.jpg", jpeg, FormatSummary(out.Result, user.Preferences.Processing.TargetRipeness))
}

func (b *Bot) handleDetail(ctx context.Context, msg *tgbotapi.Message, x, y int) {
	chatID := msg.Chat.ID
	detail, err := b.quality.Detail(ctx, msg.From.ID, x, y)
	switch {
	case errors.Is(err, app.ErrNoResult):
		b.sendMessage(chatID, msgNoResult)
		return
	case errors.Is(err, app.ErrNoSegment):
		b.sendMessage(chatID, msgNoSegment)
		return
	case errors.Is(err, app.ErrBusy):
		b.sendMessage(chatID, msgBusy)
		return
	case err != nil:
		logger.WithError(err).Error("failed to build detail")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	caption := FormatDetail(detail)
	if detail.Chart == nil {
		b.sendMessage(chatID, caption)
		return
	}
	png, err := imagecodec.EncodePNG(detail.Chart)
	if err != nil {
		logger.WithError(err).Warn("failed to encode chart")
		b.sendMessage(chatID, caption)
		return
	}
	b.sendPhoto(chatID, "chart.png", png, caption)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		logger.WithError(err).Warn("failed to send message")
	}
}

func (b *Bot) sendPhoto(chatID int64, name string, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		logger.WithError(err).Warn("failed to send photo")
	}
}
