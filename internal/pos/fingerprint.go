package pos

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const (
	domainTables  = "possync/tables/v1"
	domainTickets = "possync/tickets/v1"
)

// TablesFingerprint hashes the (number, status, orders) projection of the
// tables, in number order. Table ids are not part of it.
func TablesFingerprint(tables []Table) string {
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	SortTables(sorted)

	arr := make([]any, len(sorted))
	for i, t := range sorted {
		arr[i] = map[string]any{
			"number": t.Number,
			"status": string(t.Status),
			"orders": linesValue(t.Orders),
		}
	}
	return mustHash(domainTables, arr)
}

// TicketsFingerprint hashes the active tickets in their stored order.
func TicketsFingerprint(tickets []KitchenTicket) string {
	arr := make([]any, len(tickets))
	for i, k := range tickets {
		arr[i] = map[string]any{
			"id":          k.ID,
			"tableNumber": k.TableNumber,
			"items":       linesValue(k.Items),
			"status":      string(k.Status),
			"timestamp":   k.Timestamp,
		}
	}
	return mustHash(domainTickets, arr)
}

func linesValue(lines []OrderLine) []any {
	out := make([]any, len(lines))
	for i, l := range lines {
		out[i] = map[string]any{
			"id":       l.ID,
			"name":     l.Name,
			"price":    l.Price,
			"category": l.Category,
			"quantity": l.Quantity,
		}
	}
	return out
}

func mustHash(domain string, v any) string {
	data, err := marshalCanonical(v)
	if err != nil {
		// Values are built above from closed types only.
		panic(fmt.Sprintf("fingerprint %s: %v", domain, err))
	}
	return hashWithDomain(domain, data)
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// marshalCanonical writes sorted-key JSON with NFC strings. Decimals are
// written as their shortest string so 150 and 150.00 hash alike.
func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case decimal.Decimal:
		return writeCanonicalString(buf, val.String())
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
