package reports

import (
	"testing"
	"time"

	"github.com/kencana-erp/kencana/internal/accounting/journals"
	_ "github.com/kencana-erp/kencana/testing"
)

func doc(code string, day int, diff float64) journals.DocumentAggregate {
	return journals.DocumentAggregate{
		DocCode:    code,
		Date:       time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Difference: diff,
		Balanced:   diff == 0,
	}
}

func TestSelectUnbalancedRanksByMagnitude(t *testing.T) {
	docs := []journals.DocumentAggregate{
		doc("A", 1, 50),
		doc("B", 2, -5),
		doc("C", 3, 200),
		doc("D", 4, 0),
	}
	got := Select(docs, ModeUnbalanced, 10)
	if len(got) != 3 {
		t.Fatalf("balanced rows must be filtered, got %d", len(got))
	}
	if got[0].DocCode != "C" || got[1].DocCode != "A" || got[2].DocCode != "B" {
		t.Fatalf("unexpected order: %s %s %s", got[0].DocCode, got[1].DocCode, got[2].DocCode)
	}
}

func TestSelectAllOrdersByDateThenMagnitude(t *testing.T) {
	docs := []journals.DocumentAggregate{
		doc("A", 1, 300),
		doc("B", 5, 10),
		doc("C", 5, 40),
		doc("D", 3, 0),
	}
	got := Select(docs, ModeAll, 10)
	if len(got) != 4 {
		t.Fatalf("mode all keeps every row, got %d", len(got))
	}
	if got[0].DocCode != "C" || got[1].DocCode != "B" {
		t.Fatalf("same-day rows must rank by magnitude: %s %s", got[0].DocCode, got[1].DocCode)
	}
	if got[2].DocCode != "D" || got[3].DocCode != "A" {
		t.Fatalf("unexpected date ordering: %s %s", got[2].DocCode, got[3].DocCode)
	}
}

func TestSelectTruncates(t *testing.T) {
	docs := make([]journals.DocumentAggregate, 0, 25)
	for i := 0; i < 25; i++ {
		docs = append(docs, doc("X", 1+i%28, float64(i+1)))
	}
	got := Select(docs, ModeUnbalanced, 10)
	if len(got) != 10 {
		t.Fatalf("expected truncation to 10, got %d", len(got))
	}
	if got[0].Difference != 25 {
		t.Fatalf("expected largest first, got %v", got[0].Difference)
	}
}

func TestSelectZeroTopNKeepsAll(t *testing.T) {
	docs := []journals.DocumentAggregate{doc("A", 1, 1), doc("B", 2, 2)}
	if got := Select(docs, ModeUnbalanced, 0); len(got) != 2 {
		t.Fatalf("topN<=0 keeps survivors, got %d", len(got))
	}
}

func TestPolicyTolerance(t *testing.T) {
	pol := DefaultPolicy()
	if got := pol.Tolerance(1000000); got != 10 {
		t.Fatalf("tolerance(1e6) = %v", got)
	}
	if got := pol.Tolerance(161); got != 1 {
		t.Fatalf("tolerance floor must apply: %v", got)
	}
	if got := pol.Tolerance(-1000000); got != 10 {
		t.Fatalf("tolerance uses magnitude: %v", got)
	}
}

func TestPolicyModeFallback(t *testing.T) {
	pol := DefaultPolicy()
	if pol.Mode("") != ModeUnbalanced {
		t.Fatalf("empty override must fall back to default")
	}
	if pol.Mode(ModeAll) != ModeAll {
		t.Fatalf("valid override must win")
	}
	if pol.Mode(Mode("wild")) != ModeUnbalanced {
		t.Fatalf("unknown override must fall back")
	}
}
