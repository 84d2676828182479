package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/movienight-api/internal/domain/cycle"
)

func inPool(ids ...string) func(string) bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}

func TestValidateNominations(t *testing.T) {
	pool := inPool("m1", "m2", "m3", "m4")

	assert.NoError(t, ValidateNominations([]string{"m1", "m2"}, 3, pool))
	assert.NoError(t, ValidateNominations(nil, 3, pool), "opting out is valid")

	assert.Error(t, ValidateNominations([]string{"m1", "m2", "m3", "m4"}, 3, pool), "over the cap")
	assert.Error(t, ValidateNominations([]string{"m1", "m1"}, 3, pool), "duplicate")
	assert.Error(t, ValidateNominations([]string{"m9"}, 3, pool), "not in pool")
	assert.Error(t, ValidateNominations([]string{""}, 3, pool), "empty id")
}

func TestValidateBallotFullSlate(t *testing.T) {
	nominated := []string{"m1", "m2", "m3", "m4"}

	assert.NoError(t, ValidateBallot(cycle.Ballot{TopPick: "m1", SecondPick: "m2", ThirdPick: "m3"}, nominated))

	assert.Error(t, ValidateBallot(cycle.Ballot{TopPick: "m1", SecondPick: "m2"}, nominated),
		"three picks required when at least three movies were nominated")
	assert.Error(t, ValidateBallot(cycle.Ballot{TopPick: "m1", SecondPick: "m1", ThirdPick: "m2"}, nominated),
		"picks must be distinct")
	assert.Error(t, ValidateBallot(cycle.Ballot{TopPick: "m1", SecondPick: "m2", ThirdPick: "m9"}, nominated),
		"picks must come from the nominated slate")
}

func TestValidateBallotShortSlate(t *testing.T) {
	nominated := []string{"m1", "m2"}

	assert.NoError(t, ValidateBallot(cycle.Ballot{TopPick: "m2", SecondPick: "m1"}, nominated))
	assert.Error(t, ValidateBallot(cycle.Ballot{TopPick: "m1"}, nominated),
		"both movies must be ranked when only two were nominated")
	assert.Error(t, ValidateBallot(cycle.Ballot{TopPick: "m1", SecondPick: "m2", ThirdPick: "m2"}, nominated))
}

func TestValidateBallotEmptySlate(t *testing.T) {
	assert.Error(t, ValidateBallot(cycle.Ballot{}, nil))
}

func TestValidateFinishTime(t *testing.T) {
	assert.NoError(t, ValidateFinishTime("03:30"))
	assert.NoError(t, ValidateFinishTime("23:59"))
	assert.Error(t, ValidateFinishTime("25:00"))
	assert.Error(t, ValidateFinishTime("9 pm"))
	assert.Error(t, ValidateFinishTime(""))
}
