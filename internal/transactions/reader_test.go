package transactions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// marketCSV is a small excerpt in the shape of a market basket log.
const marketCSV = `shrimp,almonds,avocado,vegetables mix
burgers,meatballs,eggs
chutney
turkey,avocado
mineral water,milk,energy bar,whole wheat rice,green tea
low fat yogurt,,
, ,
`

func TestReadCSV(t *testing.T) {
	baskets, err := ReadCSV(strings.NewReader(marketCSV), 0)
	require.NoError(t, err)
	require.Len(t, baskets, 7)

	assert.Equal(t, []string{"shrimp", "almonds", "avocado", "vegetables mix"}, baskets[0])
	assert.Equal(t, []string{"chutney"}, baskets[2])
	assert.Equal(t, []string{"low fat yogurt"}, baskets[5], "empty trailing fields are dropped")
	assert.Empty(t, baskets[6], "blank-only record is kept as an empty transaction")
}

func TestReadCSV_BlankLinesAreTransactions(t *testing.T) {
	baskets, err := ReadCSV(strings.NewReader("a,b\n\na\n,,\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {}, {"a"}, {}}, baskets)

	m, err := (&Encoder{}).FitTransform(baskets)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumTransactions(), "blank line must count in the support denominator")
}

func TestReadCSV_LineEndings(t *testing.T) {
	baskets, err := ReadCSV(strings.NewReader("a,b\r\n\r\nc"), 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {}, {"c"}}, baskets)

	baskets, err = ReadCSV(strings.NewReader(""), 0)
	require.NoError(t, err)
	assert.Empty(t, baskets)
}

func TestReadCSV_QuotedFieldSpansLines(t *testing.T) {
	baskets, err := ReadCSV(strings.NewReader("\"fish,\n chips\",tea\n\nmilk\n"), 0)
	require.NoError(t, err)
	require.Len(t, baskets, 3)
	assert.Equal(t, []string{"fish,\n chips", "tea"}, baskets[0])
	assert.Empty(t, baskets[1])
	assert.Equal(t, []string{"milk"}, baskets[2])
}

func TestReadCSV_Delimiter(t *testing.T) {
	baskets, err := ReadCSV(strings.NewReader("a;b\nc\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, baskets)
}

func TestReadCSV_MalformedQuote(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,\"b\nc\n"), 0)
	require.Error(t, err)
}

func TestLoad_CSVByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_items.csv")
	require.NoError(t, os.WriteFile(path, []byte(marketCSV), 0o600))

	baskets, err := Load(Source{Path: path})
	require.NoError(t, err)
	assert.Len(t, baskets, 7)
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baskets.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"bread", "milk"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{" eggs ", "", "bread"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	baskets, err := Load(Source{Path: path, Format: FormatAuto})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"bread", "milk"}, {"eggs", "bread"}}, baskets)

	_, err = Load(Source{Path: path, Format: FormatXLSX, Sheet: "missing"})
	assert.Error(t, err)
}

func TestLoad_UnknownFormat(t *testing.T) {
	_, err := Load(Source{Path: "x.csv", Format: "parquet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Source{Path: filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	b := [][]string{{"a"}, {"b"}, {"c"}}
	assert.Len(t, Preview(b, 2), 2)
	assert.Len(t, Preview(b, 10), 3)
	assert.Len(t, Preview(b, -1), 3)
}
