// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package progress shows a spinner while a long-running operation completes.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Wait runs fn and returns its result. When w is a terminal a spinner
// labelled with label is drawn until fn returns. Otherwise a single
// "label..." line is written to w.
func Wait[T any](ctx context.Context, w io.Writer, label string, fn func(context.Context) (T, error)) (T, error) {
	if !isTerminal(w) {
		fmt.Fprintf(w, "%s...\n", label)
		return fn(ctx)
	}

	m := newModel[T](label, func() tea.Msg {
		v, err := fn(ctx)
		return doneMsg[T]{value: v, err: err}
	})

	p := tea.NewProgram(m,
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		var zero T
		return zero, err
	}

	fm := final.(model[T])
	return fm.value, fm.err
}

// Do is Wait for operations that only return an error.
func Do(ctx context.Context, w io.Writer, label string, fn func(context.Context) error) error {
	_, err := Wait(ctx, w, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type doneMsg[T any] struct {
	value T
	err   error
}

type model[T any] struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	done    bool
	value   T
	err     error
}

func newModel[T any](label string, run tea.Cmd) model[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4285f4"))
	return model[T]{spinner: s, label: label, run: run}
}

func (m model[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg[T]:
		m.done = true
		m.value = msg.value
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model[T]) View() string {
	if m.done {
		status := "done"
		if m.err != nil {
			status = "failed"
		}
		return fmt.Sprintf("%s... %s\n", m.label, status)
	}
	return fmt.Sprintf("%s %s...\n", m.spinner.View(), m.label)
}
