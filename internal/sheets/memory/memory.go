// Package memory is an in-process ReportPublisher used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"rendiconto/internal/core"
	ports "rendiconto/internal/sheets"
)

type Publisher struct {
	mu        sync.Mutex
	published []*core.ReportPack
	failWith  error
}

var _ ports.ReportPublisher = (*Publisher)(nil)

func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every subsequent PublishReport return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

func (p *Publisher) PublishReport(_ context.Context, pack *core.ReportPack) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, pack)
	return nil
}

// Published returns the packs received so far.
func (p *Publisher) Published() []*core.ReportPack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*core.ReportPack(nil), p.published...)
}
