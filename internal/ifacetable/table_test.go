package ifacetable

import "testing"

func twoRecords() []*Record {
	a := NewRecord("a", 1, 1500)
	b := NewRecord("b", 2, 1500)
	return []*Record{a, b}
}

func TestNewRejectsFewerThanTwo(t *testing.T) {
	_, err := New([]*Record{NewRecord("a", 1, 1500)})
	if err == nil {
		t.Fatal("expected error for single-interface table")
	}
}

func TestNewRejectsDuplicateName(t *testing.T) {
	recs := twoRecords()
	recs[1].Name = "a"
	if _, err := New(recs); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestNewRejectsDuplicateIndex(t *testing.T) {
	recs := twoRecords()
	recs[1].Index = recs[0].Index
	if _, err := New(recs); err == nil {
		t.Fatal("expected error for duplicate index")
	}
}

func TestNewRejectsStaticAndLearnTogether(t *testing.T) {
	recs := twoRecords()
	recs[1].StaticMAC = StaticMAC{Pending: true}
	recs[1].LearnMACFrom = recs[0].Index
	if _, err := New(recs); err == nil {
		t.Fatal("expected error for set-mac and set-mac-from both set")
	}
}

func TestNewRejectsLearnFromSelf(t *testing.T) {
	recs := twoRecords()
	recs[1].LearnMACFrom = recs[1].Index
	if _, err := New(recs); err == nil {
		t.Fatal("expected error for set-mac-from self-reference")
	}
}

func TestNewRejectsLearnFromUndefined(t *testing.T) {
	recs := twoRecords()
	recs[1].LearnMACFrom = 99
	if _, err := New(recs); err == nil {
		t.Fatal("expected error for set-mac-from undefined interface")
	}
}

func TestNewAcceptsValidTable(t *testing.T) {
	recs := twoRecords()
	recs[1].LearnMACFrom = recs[0].Index
	tbl, err := New(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("got len %d", tbl.Len())
	}
	if _, ok := tbl.ByName("a"); !ok {
		t.Error("expected lookup by name to find \"a\"")
	}
	if _, ok := tbl.ByIndex(recs[0].Index); !ok {
		t.Error("expected lookup by index to find first record")
	}
}

func TestLearnersOneShot(t *testing.T) {
	recs := twoRecords()
	recs[1].LearnMACFrom = recs[0].Index
	tbl, err := New(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	learners := tbl.Learners(recs[0].Index)
	if len(learners) != 1 || learners[0] != recs[1] {
		t.Fatalf("expected b to be a pending learner, got %v", learners)
	}

	learners[0].MarkLearned()

	if got := tbl.Learners(recs[0].Index); len(got) != 0 {
		t.Errorf("expected no learners after MarkLearned, got %v", got)
	}
}
