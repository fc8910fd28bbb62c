package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/Dosada05/archery-system/models"
	"github.com/Dosada05/archery-system/repositories"
	"github.com/Dosada05/archery-system/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories for exercising the scoring and advancement logic
// without a database. The transactional cores take an SQLExecutor they pass
// straight through to the repositories, so a nil executor works here. The
// fakes lock internally because batch generation hits them from several
// goroutines.

type fakeBracketRepo struct {
	mu       sync.Mutex
	brackets map[int]*models.Bracket
	nextID   int
}

func (r *fakeBracketRepo) Create(ctx context.Context, exec repositories.SQLExecutor, b *models.Bracket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
	r.brackets[b.ID] = b
	return nil
}

func (r *fakeBracketRepo) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brackets[id]
	if !ok {
		return nil, repositories.ErrBracketNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBracketRepo) GetByGroup(ctx context.Context, group models.GroupKey) (*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.brackets {
		if b.Group() == group {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrBracketNotFound
}

func (r *fakeBracketRepo) List(ctx context.Context) ([]*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Bracket, 0, len(r.brackets))
	for _, b := range r.brackets {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBracketRepo) DeleteByGroup(ctx context.Context, exec repositories.SQLExecutor, group models.GroupKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.brackets {
		if b.Group() == group {
			delete(r.brackets, id)
		}
	}
	return nil
}

func (r *fakeBracketRepo) SetCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brackets[id]
	if !ok {
		return repositories.ErrBracketNotFound
	}
	b.CurrentRound = round
	return nil
}

func (r *fakeBracketRepo) SetCompleted(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brackets[id]
	if !ok {
		return repositories.ErrBracketNotFound
	}
	b.IsCompleted = true
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	nextID  int
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	r.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *fakeMatchRepo) getLocked(id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeMatchRepo) GetByPosition(ctx context.Context, exec repositories.SQLExecutor, bracketID, round, position int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.BracketID == bracketID && m.Round == round && m.Position == position {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByBracket(ctx context.Context, bracketID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.BracketID == bracketID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *fakeMatchRepo) CountUnfinishedInRound(ctx context.Context, exec repositories.SQLExecutor, bracketID, round int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.BracketID == bracketID && m.Round == round && m.Status != models.MatchStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) UpdateScoreStatusWinner(ctx context.Context, exec repositories.SQLExecutor, id int, slot1Points, slot2Points int, status models.MatchStatus, winnerEntrantID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Slot1SetPoints = slot1Points
	m.Slot2SetPoints = slot2Points
	m.Status = status
	m.WinnerEntrantID = winnerEntrantID
	return nil
}

func (r *fakeMatchRepo) FillSlot(ctx context.Context, exec repositories.SQLExecutor, id, slot, entrantID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	target := &m.Slot1EntrantID
	if slot == 2 {
		target = &m.Slot2EntrantID
	}
	if *target != nil && **target != entrantID {
		return false, nil
	}
	id2 := entrantID
	*target = &id2
	return true, nil
}

type fakeSetRepo struct {
	mu     sync.Mutex
	sets   map[int]*models.Set
	nextID int

	// Backs ListByBracket, which needs the match-to-bracket mapping.
	matchRepo *fakeMatchRepo
}

func (r *fakeSetRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, set *models.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sets {
		if s.MatchID == set.MatchID && s.Number == set.Number {
			if s.Confirmed {
				return repositories.ErrSetAlreadyConfirmed
			}
			s.Slot1Arrows = set.Slot1Arrows
			s.Slot2Arrows = set.Slot2Arrows
			s.Slot1Distance = set.Slot1Distance
			s.Slot2Distance = set.Slot2Distance
			set.ID = s.ID
			return nil
		}
	}
	r.nextID++
	set.ID = r.nextID
	cp := *set
	r.sets[set.ID] = &cp
	return nil
}

func (r *fakeSetRepo) GetByNumber(ctx context.Context, exec repositories.SQLExecutor, matchID, number int) (*models.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sets {
		if s.MatchID == matchID && s.Number == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrSetNotFound
}

func (r *fakeSetRepo) Confirm(ctx context.Context, exec repositories.SQLExecutor, id, slot1Points, slot2Points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sets[id]
	if !ok {
		return repositories.ErrSetNotFound
	}
	s.Slot1Points = slot1Points
	s.Slot2Points = slot2Points
	s.Confirmed = true
	return nil
}

func (r *fakeSetRepo) ListConfirmedByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]models.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Set
	for _, s := range r.sets {
		if s.MatchID == matchID && s.Confirmed {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeSetRepo) ListByMatch(ctx context.Context, matchID int) ([]models.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Set
	for _, s := range r.sets {
		if s.MatchID == matchID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeSetRepo) ListByBracket(ctx context.Context, bracketID int) ([]models.Set, error) {
	if r.matchRepo == nil {
		return nil, nil
	}
	matches, err := r.matchRepo.ListByBracket(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	inBracket := make(map[int]bool, len(matches))
	for _, m := range matches {
		inBracket[m.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Set
	for _, s := range r.sets {
		if inBracket[s.MatchID] {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

type fixture struct {
	svc         *matchService
	bracketRepo *fakeBracketRepo
	matchRepo   *fakeMatchRepo
	setRepo     *fakeSetRepo
	bracket     *models.Bracket
}

func intPtr(v int) *int { return &v }

// newFixture builds a size-4 bracket: two semifinals with entrants 1-4
// seated, an empty final and an empty bronze match.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	bracketRepo := &fakeBracketRepo{brackets: map[int]*models.Bracket{}}
	matchRepo := &fakeMatchRepo{matches: map[int]*models.Match{}}
	setRepo := &fakeSetRepo{sets: map[int]*models.Set{}, matchRepo: matchRepo}

	bracket := &models.Bracket{Category: "senior", Distance: 70, Gender: models.GenderMale, Size: 4, CurrentRound: 1}
	require.NoError(t, bracketRepo.Create(context.Background(), nil, bracket))

	seats := []struct {
		round, position int
		slot1, slot2    *int
	}{
		{1, 1, intPtr(1), intPtr(4)},
		{1, 2, intPtr(3), intPtr(2)},
		{2, 1, nil, nil},
		{models.BronzeRound, 1, nil, nil},
	}
	for _, s := range seats {
		m := &models.Match{
			BracketID:      bracket.ID,
			Round:          s.round,
			Position:       s.position,
			Slot1EntrantID: s.slot1,
			Slot2EntrantID: s.slot2,
			Status:         models.MatchStatusPending,
		}
		require.NoError(t, matchRepo.Create(context.Background(), nil, m))
	}

	svc := &matchService{
		bracketRepo: bracketRepo,
		matchRepo:   matchRepo,
		setRepo:     setRepo,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	return &fixture{svc: svc, bracketRepo: bracketRepo, matchRepo: matchRepo, setRepo: setRepo, bracket: bracket}
}

func (f *fixture) matchAt(t *testing.T, round, position int) *models.Match {
	t.Helper()
	m, err := f.matchRepo.GetByPosition(context.Background(), nil, f.bracket.ID, round, position)
	require.NoError(t, err)
	return m
}

// confirmWin drives the match to a 6-0 win for slot 1 by confirming three
// straight winning sets.
func (f *fixture) confirmWin(t *testing.T, matchID int) *ConfirmSetResult {
	t.Helper()
	var result *ConfirmSetResult
	for n := 1; n <= 3; n++ {
		var err error
		result, err = f.svc.confirmSetTx(context.Background(), nil, SetInput{
			MatchID:     matchID,
			Number:      n,
			Slot1Arrows: []int64{10, 10, 10},
			Slot2Arrows: []int64{9, 9, 9},
		})
		require.NoError(t, err)
	}
	return result
}

func TestConfirmSetAccumulatesPoints(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	result, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID:     sf1.ID,
		Number:      1,
		Slot1Arrows: []int64{10, 9, 9},
		Slot2Arrows: []int64{10, 10, 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Match.Slot1SetPoints)
	assert.Equal(t, 2, result.Match.Slot2SetPoints)
	assert.Equal(t, models.MatchStatusInProgress, result.Match.Status)
	assert.True(t, result.Set.Confirmed)
	assert.Nil(t, result.Match.WinnerEntrantID)
}

func TestConfirmSetCompletesAndAdvancesWinner(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	result := f.confirmWin(t, sf1.ID)

	require.NotNil(t, result.Match.WinnerEntrantID)
	assert.Equal(t, 1, *result.Match.WinnerEntrantID)
	assert.Equal(t, models.MatchStatusCompleted, result.Match.Status)

	// Odd position feeds slot 1 of the next round.
	final := f.matchAt(t, 2, 1)
	require.NotNil(t, final.Slot1EntrantID)
	assert.Equal(t, 1, *final.Slot1EntrantID)
	assert.Nil(t, final.Slot2EntrantID)
}

func TestConfirmSetEvenPositionFeedsSlotTwo(t *testing.T) {
	f := newFixture(t)
	sf2 := f.matchAt(t, 1, 2)

	f.confirmWin(t, sf2.ID)

	final := f.matchAt(t, 2, 1)
	assert.Nil(t, final.Slot1EntrantID)
	require.NotNil(t, final.Slot2EntrantID)
	assert.Equal(t, 3, *final.Slot2EntrantID)
}

func TestSemifinalLoserGoesToBronze(t *testing.T) {
	f := newFixture(t)

	f.confirmWin(t, f.matchAt(t, 1, 1).ID)
	f.confirmWin(t, f.matchAt(t, 1, 2).ID)

	bronze := f.matchAt(t, models.BronzeRound, 1)
	require.NotNil(t, bronze.Slot1EntrantID)
	require.NotNil(t, bronze.Slot2EntrantID)
	assert.Equal(t, 4, *bronze.Slot1EntrantID, "first semifinal loser takes slot 1")
	assert.Equal(t, 2, *bronze.Slot2EntrantID, "second semifinal loser takes slot 2")
}

func TestRoundPointerAdvancesWhenRoundFinishes(t *testing.T) {
	f := newFixture(t)

	f.confirmWin(t, f.matchAt(t, 1, 1).ID)
	b, err := f.bracketRepo.GetByID(context.Background(), f.bracket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.CurrentRound, "round holds while a semifinal is unplayed")

	f.confirmWin(t, f.matchAt(t, 1, 2).ID)
	b, err = f.bracketRepo.GetByID(context.Background(), f.bracket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, b.CurrentRound)
}

func TestFinalCompletionCompletesBracket(t *testing.T) {
	f := newFixture(t)

	f.confirmWin(t, f.matchAt(t, 1, 1).ID)
	f.confirmWin(t, f.matchAt(t, 1, 2).ID)
	f.confirmWin(t, f.matchAt(t, 2, 1).ID)

	b, err := f.bracketRepo.GetByID(context.Background(), f.bracket.ID)
	require.NoError(t, err)
	assert.True(t, b.IsCompleted)
}

func TestBronzeResultDoesNotAdvance(t *testing.T) {
	f := newFixture(t)

	f.confirmWin(t, f.matchAt(t, 1, 1).ID)
	f.confirmWin(t, f.matchAt(t, 1, 2).ID)
	f.confirmWin(t, f.matchAt(t, models.BronzeRound, 1).ID)

	bronze := f.matchAt(t, models.BronzeRound, 1)
	require.NotNil(t, bronze.WinnerEntrantID)
	assert.Equal(t, 4, *bronze.WinnerEntrantID)

	b, err := f.bracketRepo.GetByID(context.Background(), f.bracket.ID)
	require.NoError(t, err)
	assert.False(t, b.IsCompleted, "bronze never completes the bracket")
}

func TestConfirmSetIdempotentRetry(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	f.confirmWin(t, sf1.ID)

	// Retrying the confirmation that completed the match returns the
	// stored result instead of an error.
	result, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID:     sf1.ID,
		Number:      3,
		Slot1Arrows: []int64{10, 10, 10},
		Slot2Arrows: []int64{9, 9, 9},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, result.Match.Status)
	assert.True(t, result.Set.Confirmed)

	// Nothing drifted: still exactly three confirmed sets and 6 points.
	history, err := f.setRepo.ListConfirmedByMatch(context.Background(), nil, sf1.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestConfirmSetRejectsDifferingResubmission(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID:     sf1.ID,
		Number:      1,
		Slot1Arrows: []int64{10, 10, 10},
		Slot2Arrows: []int64{9, 9, 9},
	})
	require.NoError(t, err)

	_, err = f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID:     sf1.ID,
		Number:      1,
		Slot1Arrows: []int64{8, 8, 8},
		Slot2Arrows: []int64{9, 9, 9},
	})
	assert.ErrorIs(t, err, ErrSetArrowsMismatch)
}

func TestConfirmSetValidation(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID: sf1.ID, Number: 0,
		Slot1Arrows: []int64{10, 10, 10}, Slot2Arrows: []int64{9, 9, 9},
	})
	assert.ErrorIs(t, err, ErrSetNumberOutOfRange)

	_, err = f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID: sf1.ID, Number: models.MaxSets + 1,
		Slot1Arrows: []int64{10, 10, 10}, Slot2Arrows: []int64{9, 9, 9},
	})
	assert.ErrorIs(t, err, ErrSetNumberOutOfRange)
}

func TestConfirmSetRejectsUnseededMatch(t *testing.T) {
	f := newFixture(t)
	final := f.matchAt(t, 2, 1)

	_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID: final.ID, Number: 1,
		Slot1Arrows: []int64{10, 10, 10}, Slot2Arrows: []int64{9, 9, 9},
	})
	assert.ErrorIs(t, err, ErrMatchNotPlayable)
}

func TestConfirmSetRejectsByeMatch(t *testing.T) {
	f := newFixture(t)

	bye := &models.Match{
		BracketID:       f.bracket.ID,
		Round:           1,
		Position:        3,
		Slot1EntrantID:  intPtr(9),
		Status:          models.MatchStatusCompleted,
		WinnerEntrantID: intPtr(9),
		IsBye:           true,
	}
	require.NoError(t, f.matchRepo.Create(context.Background(), nil, bye))

	_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID: bye.ID, Number: 1,
		Slot1Arrows: []int64{10, 10, 10}, Slot2Arrows: []int64{9, 9, 9},
	})
	assert.ErrorIs(t, err, ErrByeMatchNotScorable)
}

func TestSaveSetRejectsTooManyArrows(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	_, err := f.svc.SaveSet(context.Background(), SetInput{
		MatchID:     sf1.ID,
		Number:      1,
		Slot1Arrows: []int64{10, 10, 10, 10},
		Slot2Arrows: []int64{9, 9},
	})
	require.ErrorIs(t, err, scoring.ErrInvalidArrowValue)
	assert.Contains(t, err.Error(), "slot 1")
	assert.Contains(t, err.Error(), "at most 3")
}

// A drifted cached counter on the match row is overwritten with the totals
// derived from the confirmed history on every read.
func TestGetMatchRederivesTotalsFromHistory(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID:     sf1.ID,
		Number:      1,
		Slot1Arrows: []int64{10, 10, 10},
		Slot2Arrows: []int64{9, 9, 9},
	})
	require.NoError(t, err)

	// Corrupt the cached totals behind the service's back.
	f.matchRepo.mu.Lock()
	f.matchRepo.matches[sf1.ID].Slot1SetPoints = 99
	f.matchRepo.matches[sf1.ID].Slot2SetPoints = 42
	f.matchRepo.mu.Unlock()

	m, err := f.svc.GetMatch(context.Background(), sf1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Slot1SetPoints)
	assert.Equal(t, 0, m.Slot2SetPoints)
}

func drawToShootOff(t *testing.T, f *fixture, matchID int) {
	t.Helper()
	// One win each, then three ties: 5-5 after five sets.
	inputs := [][2][]int64{
		{{10, 10, 10}, {9, 9, 9}},
		{{9, 9, 9}, {10, 10, 10}},
		{{9, 9, 9}, {9, 9, 9}},
		{{9, 9, 9}, {9, 9, 9}},
		{{9, 9, 9}, {9, 9, 9}},
	}
	for n, arrows := range inputs {
		_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
			MatchID:     matchID,
			Number:      n + 1,
			Slot1Arrows: arrows[0],
			Slot2Arrows: arrows[1],
		})
		require.NoError(t, err)
	}
}

func TestFiveFiveTieEntersShootOff(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	drawToShootOff(t, f, sf1.ID)

	m := f.matchAt(t, 1, 1)
	assert.Equal(t, models.MatchStatusShootOff, m.Status)
	assert.Equal(t, 5, m.Slot1SetPoints)
	assert.Equal(t, 5, m.Slot2SetPoints)
	assert.Nil(t, m.WinnerEntrantID)

	// Regular sets are locked out until the shoot-off resolves.
	_, err := f.svc.confirmSetTx(context.Background(), nil, SetInput{
		MatchID: sf1.ID, Number: 5,
		Slot1Arrows: []int64{10, 10, 10}, Slot2Arrows: []int64{9, 9, 9},
	})
	assert.ErrorIs(t, err, ErrMatchAwaitingShootOff)
}

func TestShootOffResolvesAndAdvances(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	drawToShootOff(t, f, sf1.ID)

	result, err := f.svc.resolveShootoffTx(context.Background(), nil, ShootoffInput{
		MatchID:    sf1.ID,
		Slot1Arrow: 9,
		Slot2Arrow: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, result.Match.Status)
	assert.Equal(t, 5, result.Match.Slot1SetPoints)
	assert.Equal(t, 6, result.Match.Slot2SetPoints)
	require.NotNil(t, result.Match.WinnerEntrantID)
	assert.Equal(t, 4, *result.Match.WinnerEntrantID)
	assert.True(t, result.Set.IsShootOff())

	final := f.matchAt(t, 2, 1)
	require.NotNil(t, final.Slot1EntrantID)
	assert.Equal(t, 4, *final.Slot1EntrantID)
}

func TestShootOffRejectedOutsideTie(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	_, err := f.svc.resolveShootoffTx(context.Background(), nil, ShootoffInput{
		MatchID:    sf1.ID,
		Slot1Arrow: 10,
		Slot2Arrow: 9,
	})
	assert.ErrorIs(t, err, ErrMatchNotInShootOff)
}

func TestShootOffIdempotentRetry(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	drawToShootOff(t, f, sf1.ID)

	_, err := f.svc.resolveShootoffTx(context.Background(), nil, ShootoffInput{
		MatchID: sf1.ID, Slot1Arrow: 9, Slot2Arrow: 10,
	})
	require.NoError(t, err)

	result, err := f.svc.resolveShootoffTx(context.Background(), nil, ShootoffInput{
		MatchID: sf1.ID, Slot1Arrow: 9, Slot2Arrow: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, result.Match.Status)
}

func TestStaleAdvancementIgnored(t *testing.T) {
	f := newFixture(t)
	sf1 := f.matchAt(t, 1, 1)

	// Another entrant already occupies the final's slot 1. A conflicting
	// advancement must not overwrite it, and must not fail the
	// confirmation either.
	final := f.matchAt(t, 2, 1)
	filled, err := f.matchRepo.FillSlot(context.Background(), nil, final.ID, 1, 99)
	require.NoError(t, err)
	require.True(t, filled)

	result := f.confirmWin(t, sf1.ID)
	assert.Equal(t, models.MatchStatusCompleted, result.Match.Status)

	final = f.matchAt(t, 2, 1)
	require.NotNil(t, final.Slot1EntrantID)
	assert.Equal(t, 99, *final.Slot1EntrantID)
}

func TestFillSlotAllowsSameEntrantReplay(t *testing.T) {
	f := newFixture(t)
	final := f.matchAt(t, 2, 1)

	filled, err := f.matchRepo.FillSlot(context.Background(), nil, final.ID, 2, 7)
	require.NoError(t, err)
	assert.True(t, filled)

	filled, err = f.matchRepo.FillSlot(context.Background(), nil, final.ID, 2, 7)
	require.NoError(t, err)
	assert.True(t, filled, "re-filling with the same entrant is a no-op, not a conflict")
}
