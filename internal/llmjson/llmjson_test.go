package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantOK  bool
		english string
	}{
		{
			name:    "clean object",
			text:    `{"english":"claim","thai":"เคลม"}`,
			wantOK:  true,
			english: "claim",
		},
		{
			name:    "json fence",
			text:    "**Bottle Assessment:**\n```json\n{\"english\": \"claim\", \"thai\": \"เคลม\"}\n```",
			wantOK:  true,
			english: "claim",
		},
		{
			name:    "bare fence without language",
			text:    "```\n{\"english\": \"x\", \"thai\": \"y\"}\n```",
			wantOK:  true,
			english: "x",
		},
		{
			name:    "braces inside strings",
			text:    `prefix {"english":"a } tricky { value","thai":"t"} suffix`,
			wantOK:  true,
			english: "a } tricky { value",
		},
		{
			name:    "escaped quote inside string",
			text:    `{"english":"say \"hi\" }","thai":"t"}`,
			wantOK:  true,
			english: `say "hi" }`,
		},
		{
			name:    "skips objects missing keys",
			text:    `{"note":"first"} then {"english":"second","thai":"t"}`,
			wantOK:  true,
			english: "second",
		},
		{
			name:    "nested payload",
			text:    `{"result":{"english":"inner","thai":"t"}}`,
			wantOK:  true,
			english: "inner",
		},
		{
			name:   "unbalanced",
			text:   `{"english":"never closed","thai":"t"`,
			wantOK: false,
		},
		{
			name:   "malformed json",
			text:   `{english: claim, thai: เคลม}`,
			wantOK: false,
		},
		{
			name:   "plain prose",
			text:   "The bottle is claimable.",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obj, ok := FindObject(tt.text, "english", "thai")
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, obj)
				return
			}
			got, ok := obj.String("english")
			require.True(t, ok)
			assert.Equal(t, tt.english, got)
		})
	}
}

func TestObjectString_NonStringValues(t *testing.T) {
	t.Parallel()

	obj, ok := FindObject(`{"english": {"cap": "ok",  "neck": "ok"}, "thai": null, "n": 3}`)
	require.True(t, ok)

	s, ok := obj.String("english")
	require.True(t, ok)
	assert.Equal(t, `{"cap":"ok","neck":"ok"}`, s)

	_, ok = obj.String("thai")
	assert.False(t, ok)

	_, ok = obj.String("missing")
	assert.False(t, ok)

	s, ok = obj.String("n")
	require.True(t, ok)
	assert.Equal(t, "3", s)
}

func TestFindObject_NoRequiredKeys(t *testing.T) {
	t.Parallel()

	obj, ok := FindObject(`answer: {"manufactured_date": "12/04/2025"}`)
	require.True(t, ok)
	d, ok := obj.String("manufactured_date")
	require.True(t, ok)
	assert.Equal(t, "12/04/2025", d)
}

func TestParseBilingual(t *testing.T) {
	t.Parallel()

	b, ok := ParseBilingual("Here you go:\n```json\n{\"english\": \" Claimable: cracked neck \", \"thai\": \"เคลมได้\", \"date\": \"12/04/2025\"}\n```")
	require.True(t, ok)
	assert.Equal(t, "Claimable: cracked neck", b.English)
	assert.Equal(t, "เคลมได้", b.Thai)
	assert.Equal(t, "12/04/2025", b.Date)

	b, ok = ParseBilingual(`{"english": "no date", "thai": "ไม่มีวันที่"}`)
	require.True(t, ok)
	assert.Empty(t, b.Date)
}

func TestParseBilingual_RawFallback(t *testing.T) {
	t.Parallel()

	b, ok := ParseBilingual("  The bottle looks fine.  ")
	assert.False(t, ok)
	assert.Equal(t, "The bottle looks fine.", b.English)
	assert.Equal(t, b.English, b.Thai)
}

func TestParseBilingual_NFC(t *testing.T) {
	t.Parallel()

	b, ok := ParseBilingual("{\"english\": \"cafe\u0301\", \"thai\": \"น้ำ\"}")
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9", b.English)
	assert.Equal(t, "น้ำ", b.Thai)
}
