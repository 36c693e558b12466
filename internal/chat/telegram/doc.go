// Package telegram is the Telegram Bot API transport for operator chat.
//
// Bot sends chat.Message values to operators (inline buttons become an
// inline keyboard) and runs the long-polling update loop that feeds the
// conversation machine. Operators are identified by their chat id written
// in base 10.
//
// Outbound sends go through a circuit breaker. After a configured number of
// consecutive transport failures the breaker opens and sends fail fast with
// gobreaker.ErrOpenState until it half-opens again. Errors the API reports
// for a single recipient (blocked bot, unknown chat) do not count.
package telegram
