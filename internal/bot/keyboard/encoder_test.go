package keyboard_test

import (
	"strings"
	"testing"

	"github.com/antagonist-oracle/oracle-bot/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{
			name:   "with data",
			unique: "draw_again",
			data:   "42",
			want:   "draw_again:42",
		},
		{
			name:   "without data",
			unique: "draw_again",
			data:   "",
			want:   "draw_again",
		},
		{
			name:      "exceeds limit",
			unique:    strings.Repeat("x", keyboard.CallbackDataLimitBytes+1),
			data:      "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("EncodeCallback() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUnique string
		wantData   string
		wantErr    bool
	}{
		{
			name:       "unique and data",
			input:      "draw_again:3",
			wantUnique: "draw_again",
			wantData:   "3",
		},
		{
			name:       "only unique",
			input:      "draw_again",
			wantUnique: "draw_again",
			wantData:   "",
		},
		{
			name:       "multiple separators",
			input:      "action:part1:part2",
			wantUnique: "action",
			wantData:   "part1:part2",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unique, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if unique != tt.wantUnique || data != tt.wantData {
				t.Errorf("DecodeCallback() = (%q, %q), want (%q, %q)", unique, data, tt.wantUnique, tt.wantData)
			}
		})
	}
}

func TestDrawAgainKeyboard(t *testing.T) {
	markup := keyboard.NewBuilder(nil).DrawAgain(nil)

	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("expected a single-button keyboard, got %v", markup.InlineKeyboard)
	}

	btn := markup.InlineKeyboard[0][0]

	want, err := keyboard.EncodeCallback(keyboard.DrawAgainUnique, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if btn.Data != want {
		t.Errorf("button data = %q, want %q", btn.Data, want)
	}
	if btn.Unique != "" {
		t.Errorf("button unique = %q, want empty: callbacks route by data prefix", btn.Unique)
	}
	if btn.Text == "" {
		t.Error("button text is empty")
	}
}

func TestInlineKeyboardBuilder_EncodesRows(t *testing.T) {
	markup := keyboard.NewInlineKeyboard().
		AddRow(
			keyboard.InlineButton{Text: "again", Unique: keyboard.DrawAgainUnique},
			keyboard.InlineButton{Text: "again with payload", Unique: keyboard.DrawAgainUnique, Data: "7"},
		).
		Build(func(unique, data string) string {
			payload, err := keyboard.EncodeCallback(unique, data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return payload
		})

	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected one row of two buttons, got %v", markup.InlineKeyboard)
	}

	if got := markup.InlineKeyboard[0][0].Data; got != "draw_again" {
		t.Errorf("first button data = %q, want %q", got, "draw_again")
	}
	if got := markup.InlineKeyboard[0][1].Data; got != "draw_again:7" {
		t.Errorf("second button data = %q, want %q", got, "draw_again:7")
	}
}
