package journals

import (
	"math"
	"sort"
	"strings"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
)

// AggregateDocuments groups ledger lines into per-document totals. The input
// may concatenate transactional and adjusting lines; a document present in only
// one source is unaffected by the other. Output is ordered by date descending
// then document code for deterministic rendering.
func AggregateDocuments(lines []LedgerLine) []DocumentAggregate {
	byKey := make(map[string]*DocumentAggregate)
	order := make([]string, 0)
	for _, line := range lines {
		key := documentKey(line)
		agg, ok := byKey[key]
		if !ok {
			agg = &DocumentAggregate{
				DocCode: line.DocCode,
				Source:  line.Source,
				Date:    line.Date,
				Voucher: line.Voucher,
				Remark:  line.Remark,
			}
			byKey[key] = agg
			order = append(order, key)
		}
		agg.Lines++
		agg.TotalDebit += line.Debit
		agg.TotalCredit += line.Credit
		if agg.Voucher == "" {
			agg.Voucher = line.Voucher
		}
		if agg.Remark == "" {
			agg.Remark = line.Remark
		}
		if agg.PostingDate.IsZero() {
			agg.PostingDate = line.PostingDate
		}
	}
	out := make([]DocumentAggregate, 0, len(order))
	for _, key := range order {
		agg := byKey[key]
		agg.Difference = round2(agg.TotalDebit - agg.TotalCredit)
		agg.Balanced = agg.Difference == 0
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].DocCode < out[j].DocCode
	})
	return out
}

// AggregateAccounts groups ledger lines into per-account movement sums,
// pre-filtered to the given account code prefixes. Net is credit − debit.
// Output is ordered by account code.
func AggregateAccounts(lines []LedgerLine, prefixes []string) []AccountAggregate {
	byCode := make(map[string]*AccountAggregate)
	for _, line := range lines {
		if !accounts.HasPrefix(line.AccountCode, prefixes) {
			continue
		}
		code := strings.TrimSpace(line.AccountCode)
		agg, ok := byCode[code]
		if !ok {
			agg = &AccountAggregate{AccountCode: code, AccountName: line.AccountName}
			byCode[code] = agg
		}
		agg.Debit += line.Debit
		agg.Credit += line.Credit
		if agg.AccountName == "" {
			agg.AccountName = line.AccountName
		}
	}
	out := make([]AccountAggregate, 0, len(byCode))
	for _, agg := range byCode {
		agg.Net = round2(agg.Credit - agg.Debit)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out
}

// documentKey isolates adjusting documents per period date: the grouping key
// for one adjusting document is (code, date).
func documentKey(line LedgerLine) string {
	if line.Source == SourceAdjusting {
		return string(line.Source) + "|" + line.DocCode + "|" + line.Date.Format("2006-01-02")
	}
	return string(line.Source) + "|" + line.DocCode
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
