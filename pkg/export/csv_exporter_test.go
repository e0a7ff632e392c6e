package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCSV(t *testing.T) {
	table := Table{Columns: []string{"id", "name"}}
	require.NoError(t, table.Append("1", "Ada"))
	require.NoError(t, table.Append("2", "Grace"))

	data, err := table.CSV()
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Ada\n2,Grace\n", string(data))
}

func TestTableAppendWidthMismatch(t *testing.T) {
	table := Table{Columns: []string{"id", "name"}}
	require.Error(t, table.Append("1"))
	require.Error(t, table.Append("1", "Ada", "extra"))
}

func TestTableCSVNoColumns(t *testing.T) {
	var table Table
	_, err := table.CSV()
	require.Error(t, err)
}
