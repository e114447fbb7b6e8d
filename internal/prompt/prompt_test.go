package prompt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLine_Continue(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  si \n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			l := NewLine(strings.NewReader(tt.input), &out)
			got, err := l.Continue(context.Background(), "12.db", errors.New("boom"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Continue(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "12.db") || !strings.Contains(out.String(), "boom") {
				t.Errorf("prompt should name file and error, got %q", out.String())
			}
		})
	}
}

func TestLine_ReadsOneAnswerPerCall(t *testing.T) {
	l := NewLine(strings.NewReader("y\nn\n"), &bytes.Buffer{})
	ctx := context.Background()
	first, _ := l.Continue(ctx, "1.db", errors.New("x"))
	second, _ := l.Continue(ctx, "2.db", errors.New("x"))
	if !first || second {
		t.Errorf("answers = %v, %v, want true, false", first, second)
	}
}

func TestLine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLine(strings.NewReader("y\n"), &bytes.Buffer{})
	ok, err := l.Continue(ctx, "1.db", errors.New("x"))
	if ok || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, %v; want false, context.Canceled", ok, err)
	}
}

func TestAlways(t *testing.T) {
	ok, _ := Always(true).Continue(context.Background(), "1.db", nil)
	if !ok {
		t.Error("Always(true) should continue")
	}
	ok, _ = Always(false).Continue(context.Background(), "1.db", nil)
	if ok {
		t.Error("Always(false) should stop")
	}
}

func TestScripted(t *testing.T) {
	s := &Scripted{Answers: []bool{true}}
	ctx := context.Background()
	if ok, _ := s.Continue(ctx, "1.db", nil); !ok {
		t.Error("first answer should be true")
	}
	if ok, _ := s.Continue(ctx, "2.db", nil); ok {
		t.Error("exhausted script should stop")
	}
	if len(s.Asked) != 2 || s.Asked[1] != "2.db" {
		t.Errorf("Asked = %v", s.Asked)
	}
}

func TestConfirmModel_Continue(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyEnter},
		{Type: tea.KeyRunes, Runes: []rune{'y'}},
	} {
		m := NewConfirmModel("/data/12.db", errors.New("boom"))
		result, cmd := m.Update(msg)
		cm := result.(ConfirmModel)
		if !cm.Done() || !cm.Confirmed() {
			t.Errorf("%s should confirm", msg.String())
		}
		if cmd == nil {
			t.Errorf("%s should quit the program", msg.String())
		}
	}
}

func TestConfirmModel_Stop(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'n'}},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		m := NewConfirmModel("12.db", nil)
		result, _ := m.Update(msg)
		cm := result.(ConfirmModel)
		if !cm.Done() {
			t.Errorf("%s should finish", msg.String())
		}
		if cm.Confirmed() {
			t.Errorf("%s should not confirm", msg.String())
		}
	}
}

func TestConfirmModel_IgnoresOtherKeys(t *testing.T) {
	m := NewConfirmModel("12.db", nil)
	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if result.(ConfirmModel).Done() || cmd != nil {
		t.Error("unbound key should be ignored")
	}
}

func TestConfirmModel_View(t *testing.T) {
	m := NewConfirmModel("/data/RilieviEnergetici/migrations/12.db", errors.New("invalid opening.material \"plastica\""))
	view := m.View()
	for _, want := range []string{"12.db", "plastica", "Continue with the remaining files?"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "/data/RilieviEnergetici") {
		t.Error("view should show only the file name")
	}
}
