package bot

import (
	"strings"
	"testing"

	"santabot/internal/santa"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		cmd  string
		args []string
	}{
		{"/newsanta", "newsanta", nil},
		{"/NEWSANTA", "newsanta", nil},
		{"/newsanta@SantaTestBot", "newsanta", nil},
		{"/newsanta@OtherBot", "", nil},
		{"/start -100500", "start", []string{"-100500"}},
		{"  /cancel  now ", "cancel", []string{"now"}},
		{"hello", "", nil},
		{"/", "", nil},
		{"", "", nil},
	}
	for _, tc := range cases {
		cmd, args := parseCommand(tc.text, "SantaTestBot")
		if cmd != tc.cmd {
			t.Errorf("parseCommand(%q) cmd = %q, want %q", tc.text, cmd, tc.cmd)
			continue
		}
		if len(args) != len(tc.args) {
			t.Errorf("parseCommand(%q) args = %v, want %v", tc.text, args, tc.args)
			continue
		}
		for i := range args {
			if args[i] != tc.args[i] {
				t.Errorf("parseCommand(%q) args = %v, want %v", tc.text, args, tc.args)
			}
		}
	}
}

func TestBoardTextStates(t *testing.T) {
	t.Parallel()

	sess := santa.New(groupID, "Office Party", 1, "alice", 7)

	if got := boardText(sess, 4); !strings.Contains(got, "Nobody has joined yet") {
		t.Errorf("empty board = %q", got)
	}

	sess.Join(10, "bob")
	sess.Join(11, "carol <script>")
	got := boardText(sess, 4)
	if !strings.Contains(got, "1. ") || !strings.Contains(got, "2. ") {
		t.Errorf("participant list not numbered: %q", got)
	}
	if !strings.Contains(got, `tg://user?id=10`) {
		t.Errorf("missing mention link: %q", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("participant name not escaped: %q", got)
	}
	if !strings.Contains(got, "2 more needed") {
		t.Errorf("missing-count status wrong: %q", got)
	}

	sess.Join(12, "dave")
	if got := boardText(sess, 2); !strings.Contains(got, "even number") {
		t.Errorf("odd-count status wrong: %q", got)
	}

	sess.Join(13, "erin")
	if got := boardText(sess, 2); !strings.Contains(got, "Ready to draw") {
		t.Errorf("ready status wrong: %q", got)
	}

	sess.Started = true
	if got := boardText(sess, 2); !strings.Contains(got, "matches are out") {
		t.Errorf("started status wrong: %q", got)
	}
}

func TestBoardMarkupStates(t *testing.T) {
	t.Parallel()

	sess := santa.New(groupID, "Office Party", 1, "alice", 7)
	rm := boardMarkup(sess, "SantaTestBot")
	if len(rm.InlineKeyboard) != 3 {
		t.Fatalf("open board rows = %d, want 3", len(rm.InlineKeyboard))
	}
	joinBtn := rm.InlineKeyboard[0][0]
	if !strings.Contains(joinBtn.URL, "t.me/SantaTestBot?start=-100500") {
		t.Errorf("join URL = %q", joinBtn.URL)
	}

	sess.Started = true
	rm = boardMarkup(sess, "SantaTestBot")
	if len(rm.InlineKeyboard) != 1 || rm.InlineKeyboard[0][0].Data != "revoke" {
		t.Fatalf("started board markup = %+v, want single revoke row", rm.InlineKeyboard)
	}
}
