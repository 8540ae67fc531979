package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReferences_FixedVocabulary(t *testing.T) {
	refs := NewReferences(FamilyNotification)
	assert.Len(t, refs, 5)
	for _, k := range []string{"acts", "sections", "rules", "notifications", "amendments"} {
		assert.Contains(t, refs, k)
		assert.NotNil(t, refs[k])
		assert.Empty(t, refs[k])
	}

	assert.Equal(t, []string{"circulars", "sections", "regulations", "external_links"}, ReferenceKinds(FamilyCircular))
	assert.Equal(t, []string{"acts", "sections", "chapters"}, ReferenceKinds(FamilyStatute))
}

func TestReferences_Union(t *testing.T) {
	a := References{"sections": {"5"}}
	b := References{"sections": {"5", "7"}, "circulars": {"X/1/2020"}}

	got := a.Union(b)

	assert.ElementsMatch(t, []string{"5", "7"}, got["sections"])
	assert.Equal(t, []string{"X/1/2020"}, got["circulars"])
	assert.Len(t, got, 2)

	// inputs untouched
	assert.Equal(t, []string{"5"}, a["sections"])
}

func TestReferences_UnionKeepsEmptyKeys(t *testing.T) {
	a := NewReferences(FamilyCircular)
	b := NewReferences(FamilyCircular)
	b["regulations"] = []string{"7(2)"}

	got := a.Union(b)
	assert.Len(t, got, 4)
	assert.Equal(t, []string{}, got["circulars"])
	assert.Equal(t, []string{"7(2)"}, got["regulations"])
	assert.Equal(t, 1, got.Count())
}

func TestDocumentMetadata_Year(t *testing.T) {
	tests := []struct {
		md   DocumentMetadata
		want string
	}{
		{DocumentMetadata{Date: "1[st] April, 2020"}, "2020"},
		{DocumentMetadata{Date: "", PublicationDate: "MONDAY, MAY 13, 2019"}, "2019"},
		{DocumentMetadata{}, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.md.Year())
	}
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("notification")
	assert.NoError(t, err)
	assert.Equal(t, FamilyNotification, f)

	_, err = ParseFamily("memo")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
