// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package browser

import (
	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/suggest"
)

// tooltip presents suggestions as a floating box under the surface. Its
// handles are the page-side sequence numbers, so a late Hide never removes
// a newer box.
type tooltip struct {
	page   evaluator
	hint   string
	logger *zap.Logger
}

func newTooltip(page evaluator, keys suggest.Keys, logger *zap.Logger) *tooltip {
	return &tooltip{
		page:   page,
		hint:   keys.Accept + " to accept, " + keys.Reject + " to dismiss",
		logger: logger,
	}
}

func (t *tooltip) Show(s suggest.Surface, text string) suggest.Handle {
	res, err := t.page.Eval(showSource, s.ID(), text, t.hint)
	if err != nil {
		t.logger.Warn("failed to show suggestion", zap.String("surface", s.ID()), zap.Error(err))
		return 0
	}
	return res.Value.Int()
}

func (t *tooltip) Hide(h suggest.Handle) {
	seq, ok := h.(int)
	if !ok || seq == 0 {
		return
	}
	if _, err := t.page.Eval(hideSource, seq); err != nil {
		t.logger.Debug("failed to hide suggestion", zap.Int("seq", seq), zap.Error(err))
	}
}
