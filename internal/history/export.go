package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"servodash/internal/models"
)

var csvHeader = []string{
	"Servo1_Angle", "Servo2_Angle", "Servo3_Angle",
	"Pot1_Percent", "Pot2_Percent", "Pot3_Percent",
	"Button_Pressed", "LED_State", "Servos_Active",
}

// ExportFileName names an export taken at now.
func ExportFileName(now time.Time) string {
	return "servo_data_" + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}

// WriteCSV writes the header and one line per row. Flags use the raw 0/1
// values, not the display convention.
func WriteCSV(w io.Writer, rows []models.HistoryRow) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = false
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := make([]string, 0, len(csvHeader))
		for i := 0; i < models.Channels; i++ {
			rec = append(rec, num(r.Channels[i].Angle))
		}
		for i := 0; i < models.Channels; i++ {
			rec = append(rec, num(r.Channels[i].PotPercent))
		}
		rec = append(rec, flag(r.ButtonPressed), flag(r.LEDState), strconv.Itoa(r.ActiveCount))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// writeExport renders rows and writes them atomically into dir.
func writeExport(dir string, now time.Time, rows []models.HistoryRow) (string, int, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return "", 0, fmt.Errorf("encode csv: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", 0, err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	return path, buf.Len(), nil
}
