// Package tgui provides small Telegram UI helpers:
//   - HTML text building that is safe for ParseMode="HTML" (auto escaping)
//   - Inline keyboard row builders
//   - Callback data helpers (action:arg:arg)
package tgui
