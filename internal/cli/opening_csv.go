package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Inventario-ledger/internal/application/adjustment"
)

// Columnas esperadas en el CSV de saldos iniciales (el orden es libre).
var openingColumns = []string{"sku", "site_id", "location_code", "quantity"}

// decoderFor devuelve el decodificador del archivo. Los exportes de Excel suelen venir en Windows-1252.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("codificación no soportada %q", name)
	}
}

// ParseOpeningCSV lee el CSV de saldos iniciales. Acepta ',' o ';' como separador.
func ParseOpeningCSV(r io.Reader, enc string) ([]adjustment.OpeningRow, error) {
	codec, err := decoderFor(enc)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(transform.NewReader(r, codec.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("leer csv: %w", err)
	}
	text := string(raw)

	reader := csv.NewReader(strings.NewReader(text))
	reader.TrimLeadingSpace = true
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range openingColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("falta la columna %q", col)
		}
	}

	var rows []adjustment.OpeningRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }
		if get("sku") == "" && get("quantity") == "" {
			continue
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(get("quantity"), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, get("quantity"))
		}
		rows = append(rows, adjustment.OpeningRow{
			Line:         line,
			SKU:          get("sku"),
			SiteID:       get("site_id"),
			LocationCode: get("location_code"),
			Quantity:     qty,
		})
	}
	return rows, nil
}
