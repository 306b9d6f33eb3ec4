package responder

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelbot-backend-go/internal/store"
)

func newSeededResponder(t *testing.T) *Responder {
	t.Helper()
	ks := store.NewMemoryKnowledgeStore()
	require.NoError(t, store.SeedKnowledge(context.Background(), ks))
	return New(ks)
}

func TestRespondIncludesSumSyntax(t *testing.T) {
	r := newSeededResponder(t)

	for name, message := range map[string]string{
		"english":  "how to use SUM",
		"japanese": "SUM関数の使い方",
	} {
		t.Run(name, func(t *testing.T) {
			reply, err := r.Respond(context.Background(), message)
			require.NoError(t, err)
			assert.Contains(t, reply.Text, "SUM(number1, [number2], ...)")
			assert.Contains(t, reply.Formulas, "SUM(number1, [number2], ...)")
			assert.GreaterOrEqual(t, reply.MatchedEntryCount, 1)
		})
	}
}

func TestRespondOutOfDomain(t *testing.T) {
	r := newSeededResponder(t)

	reply, err := r.Respond(context.Background(), "what is the weather today")
	require.NoError(t, err)
	assert.Equal(t, OutOfDomainMessage, reply.Text)
	assert.Empty(t, reply.Formulas)
	assert.Zero(t, reply.MatchedEntryCount)

	reply, err = r.Respond(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, OutOfDomainMessage, reply.Text)
}

func TestRespondNotFoundInDomain(t *testing.T) {
	r := newSeededResponder(t)

	reply, err := r.Respond(context.Background(), "excel qqqqzzzz")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "could not find a matching entry")
	assert.Zero(t, reply.MatchedEntryCount)
}

func TestRespondSelectsVBATemplate(t *testing.T) {
	r := newSeededResponder(t)

	reply, err := r.Respond(context.Background(), "vba to save my report as pdf")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "VBA template: Save As PDF")
	assert.NotEmpty(t, reply.VBACode)
	assert.Contains(t, reply.VBACode, "Sub ")
}

func TestRespondGenericVBASkeleton(t *testing.T) {
	r := newSeededResponder(t)

	reply, err := r.Respond(context.Background(), "vba to frobnicate the widgets")
	require.NoError(t, err)
	assert.Contains(t, reply.VBACode, "Sub CustomMacro()")
	assert.Contains(t, reply.VBACode, "frobnicate the widgets")
	assert.Contains(t, reply.Text, "skeleton")
}

func TestRespondGenericSkeletonKeepsValidUTF8(t *testing.T) {
	r := newSeededResponder(t)

	// Long multi-byte input must be shortened without splitting a rune.
	reply, err := r.Respond(context.Background(), "マクロで"+strings.Repeat("あ", 150))
	require.NoError(t, err)
	require.NotEmpty(t, reply.VBACode)
	assert.Contains(t, reply.VBACode, "Sub CustomMacro()")
	assert.True(t, utf8.ValidString(reply.VBACode))
	assert.Contains(t, reply.VBACode, strings.Repeat("あ", 50))
}

func TestRespondCapsFunctionBlocks(t *testing.T) {
	r := newSeededResponder(t)

	reply, err := r.Respond(context.Background(), "sum count max min 関数")
	require.NoError(t, err)
	assert.Len(t, reply.Formulas, 3)
	assert.Equal(t, 3, strings.Count(reply.Text, "【"))
}
