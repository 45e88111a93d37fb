package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"santabot/internal/santa"
	"santabot/pkg/tgui"
)

// The board is the single group message a session lives in. It is edited in
// place whenever participants change, the draw runs or the session closes.

func joinLink(botUsername string, chatID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", botUsername, chatID)
}

func boardText(sess *santa.Session, minParticipants int) string {
	head := tgui.JoinH("\n",
		tgui.B("Secret Santa"),
		tgui.Esc("Press Join and I will message you privately. Your name shows up on this board; your match stays secret."),
	)

	if sess.Count() == 0 {
		return tgui.JoinH("\n\n", head, tgui.I("Nobody has joined yet.")).String()
	}

	items := make([]tgui.H, 0, sess.Count())
	for _, p := range sess.Ordered() {
		items = append(items, tgui.Mention(p.Name, p.ID))
	}
	list := tgui.NumberedList(items)

	var status tgui.H
	switch {
	case sess.Started:
		status = tgui.B("The matches are out! Check your private messages.")
	case sess.MissingCount(minParticipants) > 0:
		status = tgui.I(fmt.Sprintf("%d more needed before the draw can run.", sess.MissingCount(minParticipants)))
	case sess.Count()%2 != 0:
		status = tgui.I("An even number of participants is needed before the draw can run.")
	default:
		status = tgui.I("Ready to draw whenever the organizer is.")
	}

	return tgui.JoinH("\n\n", head, list, status).String()
}

func boardMarkup(sess *santa.Session, botUsername string) *tele.ReplyMarkup {
	kb := tgui.NewInline()
	if sess.Started {
		kb.Row(tgui.Btn("Revoke matches", tgui.Data("revoke")))
		return kb.Markup()
	}
	kb.Row(tgui.URLBtn("Join", joinLink(botUsername, sess.ChatID)))
	kb.Row(tgui.Btn("Leave", tgui.Data("leave")))
	kb.Row(
		tgui.Btn("Start the draw", tgui.Data("match")),
		tgui.Btn("Cancel", tgui.Data("cancel")),
	)
	return kb.Markup()
}

// privateJoinedText is the private confirmation after a deep-link join.
func privateJoinedText(sess *santa.Session, name string) string {
	return tgui.JoinH("\n",
		tgui.JoinH(" ",
			tgui.Esc("You joined the Secret Santa in"),
			tgui.B(sess.ChatTitle)+tgui.Esc(".")),
		tgui.JoinH(" ",
			tgui.Esc("You appear on the board as"),
			tgui.B(name)+tgui.Esc(".")),
	).String()
}

func privateJoinedMarkup(chatID int64) *tele.ReplyMarkup {
	return tgui.NewInline().
		Row(
			tgui.Btn("Leave", tgui.Data("private", "leave", fmt.Sprint(chatID))),
			tgui.Btn("Update my name", tgui.Data("private", "updatename", fmt.Sprint(chatID))),
		).
		Markup()
}

func matchText(sess *santa.Session, matchID int64) string {
	return tgui.JoinH("\n",
		tgui.JoinH(" ",
			tgui.B("Secret Santa"), tgui.Esc("in"), tgui.B(sess.ChatTitle)+tgui.Esc(":")),
		tgui.JoinH(" ",
			tgui.Esc("you are giving a gift to"),
			tgui.B(sess.Name(matchID))+tgui.Esc("!")),
		tgui.Esc("Keep it to yourself."),
	).String()
}

func closedBoardText(reason string) string {
	return tgui.JoinH("\n", tgui.B("Secret Santa"), tgui.I(reason)).String()
}

func helpText() string {
	return tgui.JoinH("\n",
		tgui.B("Secret Santa bot"),
		tgui.Esc("Add me to a group and send /newsanta to open a board."),
		tgui.Esc("Everyone joins through the board's Join button, which brings them here."),
		tgui.Esc("When enough people joined, the organizer starts the draw and every participant privately receives the name of the person they gift."),
	).String()
}
