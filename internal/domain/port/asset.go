package port

// AssetStore доступ к файлам данных (CSV климата, весов, словаря признаков)
type AssetStore interface {
	// ReadLines возвращает строки файла вместе с заголовком
	ReadLines(name string) ([]string, error)

	// Path возвращает путь к файлу для внешних библиотек
	Path(name string) string
}
