package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_VersionPerUnitOfWork(t *testing.T) {
	a := NewBaseAggregateRoot()
	assert.Equal(t, 1, a.GetVersion())

	a.IncrementVersion()
	a.IncrementVersion()
	assert.Equal(t, 2, a.GetVersion(), "one bump per unit of work")
	assert.Equal(t, 1, a.NextVersion())

	a.MarkPersisted()
	assert.Equal(t, 2, a.NextVersion())
	assert.Equal(t, 3, a.GetVersion())
}

func TestBaseAggregateRoot_PullDomainEvents(t *testing.T) {
	a := NewBaseAggregateRoot()
	ev := NewBaseDomainEvent("Test", "Agg", a.ID)
	a.AddDomainEvent(&ev)

	assert.Len(t, a.PullDomainEvents(), 1)
	assert.Empty(t, a.GetDomainEvents())
}
