package chart

import (
	"image"
	"sync"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

// Provider переиспользует генератор, пока конфигурация графика не меняется
type Provider struct {
	mu       sync.Mutex
	canvases port.CanvasFactory
	current  *Generator
	cfg      entity.ChartConfiguration
}

// NewProvider создаёт поставщика генераторов
func NewProvider(canvases port.CanvasFactory) *Provider {
	return &Provider{canvases: canvases}
}

// Generator возвращает генератор для конфигурации, создавая новый только при её изменении
func (p *Provider) Generator(cfg entity.ChartConfiguration) (*Generator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.cfg.Equal(cfg) {
		return p.current, nil
	}
	g, err := NewGenerator(cfg, p.canvases)
	if err != nil {
		return nil, err
	}
	p.current = g
	p.cfg = cfg
	return g, nil
}

// Render строит график для конфигурации; highlight отмечает значение по оси Y
func (p *Provider) Render(cfg entity.ChartConfiguration, highlight *float64) (image.Image, error) {
	g, err := p.Generator(cfg)
	if err != nil {
		return nil, err
	}
	return g.Render(highlight)
}
