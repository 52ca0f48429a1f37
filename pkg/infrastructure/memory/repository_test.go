package memory

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
	"github.com/plot451/plot/pkg/infrastructure/repotest"
)

func TestColumnRepositoryContract(t *testing.T) {
	repotest.RunColumnRepository(t, func(*testing.T) column.Repository { return NewColumnRepository() })
}

func TestTableRepositoryContract(t *testing.T) {
	repotest.RunTableRepository(t, func(*testing.T) table.Repository { return NewTableRepository() })
}

func TestSequentialIDs(t *testing.T) {
	repo := NewColumnRepository()
	f := repotest.NewFixture(t, repo)

	assert.Equal(t, column.DirectoryID("1"), f.Directory("a", nil))
	assert.Equal(t, column.DirectoryID("2"), f.Directory("b", nil))
	assert.Equal(t, column.CellID("1"), f.Cell(0))
	assert.Equal(t, column.ID("1"), f.Column("c", "1"))
}

func TestConcurrentSaves(t *testing.T) {
	repo := NewColumnRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.SaveCell(ctx, column.NewCell(domain.Unassigned[column.CellID](), column.NewCellValue(float64(i))))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ids := make([]column.CellID, 50)
	for i := range ids {
		ids[i] = column.CellID(strconv.Itoa(i + 1))
	}
	cells, err := repo.FindCellsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, cells, 50)
}
