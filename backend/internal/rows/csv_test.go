package rows_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps-vitor/immo-sys/backend/internal/rows"
)

func TestReadCSVComma(t *testing.T) {
	in := "reference,prix,ville,images\n" +
		"A1,250000,Orange,\"http://a.jpg,http://b.jpg\"\n" +
		"\n" +
		",,,\n" +
		"A2,180000,Piolenc\n"

	got, err := rows.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A1", got[0]["reference"])
	assert.Equal(t, "http://a.jpg,http://b.jpg", got[0]["images"])
	assert.Equal(t, "Piolenc", got[1]["ville"])
	_, hasImages := got[1]["images"]
	assert.False(t, hasImages)
}

func TestReadCSVSemicolonWithBOM(t *testing.T) {
	in := "\xEF\xBB\xBFRéférence;Prix;Ville\nB1;95 000;Caderousse\n"

	got, err := rows.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B1", got[0]["Référence"])
	assert.Equal(t, "95 000", got[0]["Prix"])
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := rows.ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}
