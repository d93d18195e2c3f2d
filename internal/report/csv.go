package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"pocketSignalBot/internal/domain"
)

// WriteSessionCSV exports the session audit trail to a CSV file, one row per
// trade record in append order.
func WriteSessionCSV(records []domain.TradeRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"chain_id", "channel_id", "asset", "order_id", "expiration", "position", "stake", "profit", "open_time", "close_time", "result", "mtgl_level"})

	for _, rec := range records {
		writer.Write([]string{
			rec.ChainID,
			strconv.FormatInt(rec.ChannelID, 10),
			rec.Asset,
			rec.OrderID,
			rec.ExpirationLabel,
			rec.Position,
			strconv.FormatFloat(rec.Stake, 'f', -1, 64),
			strconv.FormatFloat(rec.Profit, 'f', -1, 64),
			rec.OpenTime,
			rec.CloseTime,
			string(rec.Result),
			strconv.Itoa(rec.Level),
		})
	}
	return writer.Error()
}
