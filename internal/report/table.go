// Package report renders the live session table and exports the session
// audit. It is a pure reader of ledger snapshots; nothing here feeds back
// into the execution pipeline.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"pocketSignalBot/internal/domain"
	"pocketSignalBot/internal/ledger"
)

// Renderer writes the session summary line and trade table to a console
// writer at a steady cadence.
type Renderer struct {
	out          io.Writer
	initialStake float64
}

// NewRenderer creates a console renderer.
func NewRenderer(out io.Writer, initialStake float64) *Renderer {
	return &Renderer{out: out, initialStake: initialStake}
}

// Render prints the summary line followed by one row per trade record.
func (r *Renderer) Render(records []domain.TradeRecord, st ledger.SessionStats) {
	fmt.Fprintf(r.out,
		"\nSESSION HISTORY | INITIAL Trade Amount : %.2f | OPENING CAPITAL : %.2f | TOTAL TRADES : %d | WIN : %d | LOSS : %d | DRAW : %d | Session PnL : %.2f\n",
		r.initialStake, st.OpeningBalance, st.TotalTrades, st.Wins, st.Losses, st.Draws, st.PnL)

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Asset", "Order ID", "Expiration", "Position", "Open Time", "Close Time", "Result", "MTGL"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
	})
	for _, rec := range records {
		table.Append(recordRow(rec))
	}
	table.Render()

	fmt.Fprintln(r.out, "Waiting for new signals...")
}

func recordRow(rec domain.TradeRecord) []string {
	mtgl := strconv.Itoa(rec.Level)
	if rec.Result == domain.ResultWaiting && rec.OrderID != domain.OrderPending && rec.OpenTime == "" {
		// Record is still counting down to its entry time.
		mtgl = ""
	}
	return []string{
		rec.Asset,
		rec.OrderID,
		rec.ExpirationLabel,
		rec.Position,
		rec.OpenTime,
		rec.CloseTime,
		string(rec.Result),
		mtgl,
	}
}
