package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/persist"
	"fintrack/internal/sheets/memory"
)

type failingExporter struct{}

func (failingExporter) ExportMonth(context.Context, string, []core.Transaction, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func newJob(exp *memory.Exporter, month string) *job {
	state := core.DefaultState(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	return &job{
		load: func(context.Context) (core.State, persist.Source) {
			return state, persist.FromStorage
		},
		exporter: exp,
		month:    month,
		logger:   log.New(log.Config{Output: io.Discard}),
	}
}

func TestExportUsesCursorByDefault(t *testing.T) {
	exp := memory.New()
	ref, err := newJob(exp, "").export(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if ref != "mem:2024-03:5" {
		t.Errorf("ref = %q", ref)
	}
	if _, ok := exp.Rows("2024-03"); !ok {
		t.Error("cursor month not exported")
	}
}

func TestExportPrefersFixedMonth(t *testing.T) {
	exp := memory.New()
	j := newJob(exp, "2024-01")

	if err := j.handle(context.Background())(&amqp.StateChangedMessage{Slice: "transactions", Month: "2024-03"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := exp.Rows("2024-01"); !ok {
		t.Error("fixed month not exported")
	}
	if _, ok := exp.Rows("2024-03"); ok {
		t.Error("event month exported despite -month")
	}
}

func TestHandleFollowsEventMonth(t *testing.T) {
	exp := memory.New()
	j := newJob(exp, "")

	if err := j.handle(context.Background())(&amqp.StateChangedMessage{Slice: "currentMonth", Month: "2024-04"}); err != nil {
		t.Fatal(err)
	}
	rows, ok := exp.Rows("2024-04")
	if !ok || len(rows) != 1 {
		t.Errorf("rows = %v, ok = %v; want header only", rows, ok)
	}
}

func TestHandleSkipsUnusableMonth(t *testing.T) {
	exp := memory.New()
	j := newJob(exp, "")

	if err := j.handle(context.Background())(&amqp.StateChangedMessage{Slice: "currentMonth", Month: "soon"}); err != nil {
		t.Errorf("unusable month should be acknowledged, got %v", err)
	}
	if exp.Count() != 0 {
		t.Errorf("exports = %d", exp.Count())
	}
}

func TestHandleRequeuesExporterFailure(t *testing.T) {
	j := newJob(nil, "")
	j.exporter = failingExporter{}

	if err := j.handle(context.Background())(&amqp.StateChangedMessage{Month: "2024-03"}); err == nil {
		t.Error("expected error so the message is requeued")
	}
}
