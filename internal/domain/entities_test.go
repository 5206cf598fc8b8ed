package domain

import "testing"

func TestMetadataSourceRowID(t *testing.T) {
	cases := []struct {
		name string
		meta Metadata
		want int64
		ok   bool
	}{
		{"float64", Metadata{MetaSourceRowID: float64(7)}, 7, true},
		{"int", Metadata{MetaSourceRowID: 7}, 7, true},
		{"string", Metadata{MetaSourceRowID: " 7 "}, 7, true},
		{"non-numeric string", Metadata{MetaSourceRowID: "seven"}, 0, false},
		{"missing", Metadata{}, 0, false},
		{"nil map", nil, 0, false},
	}
	for _, c := range cases {
		got, ok := c.meta.SourceRowID()
		if got != c.want || ok != c.ok {
			t.Errorf("%s: got (%d, %v), want (%d, %v)", c.name, got, ok, c.want, c.ok)
		}
	}
}

func TestPostingKey(t *testing.T) {
	withID := Chunk{Metadata: Metadata{MetaSourceRowID: float64(7), MetaCompany: "Acme", MetaJobRole: "백엔드"}}
	sameID := Chunk{Metadata: Metadata{MetaSourceRowID: float64(7), MetaCompany: "Acme", MetaJobRole: "백엔드"}}
	otherID := Chunk{Metadata: Metadata{MetaSourceRowID: float64(8), MetaCompany: "Acme", MetaJobRole: "백엔드"}}
	if withID.PostingKey() != sameID.PostingKey() {
		t.Error("chunks of the same posting must share a key")
	}
	if withID.PostingKey() == otherID.PostingKey() {
		t.Error("different row IDs must not collide")
	}

	// Without a row ID the key falls back to company and job role.
	noID := Chunk{Metadata: Metadata{MetaCompany: "Acme", MetaJobRole: "백엔드"}}
	if noID.PostingKey() == withID.PostingKey() {
		t.Error("keyed and keyless chunks must not collide")
	}
	noIDSame := Chunk{Metadata: Metadata{MetaCompany: "Acme", MetaJobRole: "백엔드"}}
	if noID.PostingKey() != noIDSame.PostingKey() {
		t.Error("keyless chunks of the same company and role must share a key")
	}
}

func TestFiltersMatches(t *testing.T) {
	meta := Metadata{MetaCompany: "Acme", MetaJobRole: "백엔드", MetaCareerType: "신입"}

	if !(Filters{}).Matches(meta) {
		t.Error("empty filters must match everything")
	}
	if !(Filters{Company: "Acme", CareerType: "신입"}).Matches(meta) {
		t.Error("matching constraints rejected")
	}
	if (Filters{Company: "Globex"}).Matches(meta) {
		t.Error("mismatched company accepted")
	}
	if (Filters{CompanyYearsNum: "18년차"}).Matches(meta) {
		t.Error("constraint on a missing field accepted")
	}
}

func TestFiltersFieldsDeterministic(t *testing.T) {
	f := Filters{Company: "Acme", JobRole: "백엔드", CareerType: "신입", CompanyYearsNum: "18년차"}
	fields := f.Fields()
	want := []string{MetaCompany, MetaJobRole, MetaCareerType, MetaCompanyYearsNum}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i, key := range want {
		if fields[i][0] != key {
			t.Errorf("field %d: got %s, want %s", i, fields[i][0], key)
		}
	}
}
