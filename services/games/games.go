package games

import (
	"errors"
	"time"

	models "teamup/models/postgres"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Player is one resolved membership row inside a game read-model.
type Player struct {
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GameWithPlayers composes a game with its resolved player list. It is
// derived, never persisted, and recomputed on every fetch.
type GameWithPlayers struct {
	ID              uint            `json:"id"`
	Date            time.Time       `json:"date"`
	PlayersRequired int             `json:"players_required"`
	Location        models.Location `json:"location"`
	CreatedAt       time.Time       `json:"created_at"`
	Players         []Player        `json:"players"`
}

// Service performs the typed reads and writes against the games and
// user_games tables and enforces the membership transitions:
// none -> confirmed (join or invitation confirm), none -> rejected
// (invitation decline), confirmed -> none (leave) and
// confirmed <-> rejected (re-responding). A rejected row cannot be removed
// through any exposed operation.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateGame inserts the game and immediately joins the creator as a
// confirmed member. The two writes are not atomic: when the join fails the
// game already exists without its creator and the caller gets a
// CreatorJoinError carrying the new game id.
func (s *Service) CreateGame(creatorID string, date time.Time, playersRequired int, loc models.Location) (*models.Game, error) {
	if creatorID == "" {
		return nil, ErrAuthenticationRequired
	}

	rawLoc, err := loc.JSON()
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	game := models.Game{
		Date:            date,
		PlayersRequired: playersRequired,
		Location:        rawLoc,
	}
	if err := s.db.Create(&game).Error; err != nil {
		return nil, &PersistenceError{Err: err}
	}

	if err := s.JoinGame(game.ID, creatorID); err != nil {
		return &game, &CreatorJoinError{GameID: game.ID, Err: err}
	}
	return &game, nil
}

// FetchGame returns the read-model for one game with every membership
// joined to the member's name.
func (s *Service) FetchGame(gameID uint) (*GameWithPlayers, error) {
	var game models.Game
	err := s.db.Preload("Memberships.User").First(&game, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toReadModel(&game)
}

// ListGames returns the read-models for all games ordered by date. The
// realtime list view re-runs this after any change notification instead of
// patching incrementally.
func (s *Service) ListGames() ([]GameWithPlayers, error) {
	var games []models.Game
	if err := s.db.Preload("Memberships.User").Order("date asc").Find(&games).Error; err != nil {
		return nil, err
	}

	list := make([]GameWithPlayers, 0, len(games))
	for i := range games {
		rm, err := toReadModel(&games[i])
		if err != nil {
			return nil, err
		}
		list = append(list, *rm)
	}
	return list, nil
}

// JoinGame inserts a confirmed membership for the pair. A second join for
// the same pair fails with ErrConflict; joining never overwrites an
// existing status.
func (s *Service) JoinGame(gameID uint, userID string) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	if err := s.ensureGameExists(gameID); err != nil {
		return err
	}

	exists, err := s.membershipExists(gameID, userID)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}

	membership := models.Membership{
		GameID: gameID,
		UserID: userID,
		Status: models.StatusConfirmed,
	}
	if err := s.db.Create(&membership).Error; err != nil {
		// Two clients racing on the same pair: the unique key wins the race,
		// not this process.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return &PersistenceError{Err: err}
	}
	return nil
}

// LeaveGame deletes the membership row for the pair. Deleting a row that
// does not exist is not an error.
func (s *Service) LeaveGame(gameID uint, userID string) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	err := s.db.Where("game_id = ? AND user_id = ?", gameID, userID).
		Delete(&models.Membership{}).Error
	if err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// RespondToInvitation upserts the membership for the pair with the given
// status, overwriting any prior status. This is the only mutation allowed to
// change an existing row's status.
func (s *Service) RespondToInvitation(gameID uint, userID string, status string) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	if !models.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.ensureGameExists(gameID); err != nil {
		return err
	}

	membership := models.Membership{
		GameID: gameID,
		UserID: userID,
		Status: status,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(&membership).Error
	if err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

func (s *Service) ensureGameExists(gameID uint) error {
	var game models.Game
	err := s.db.Select("id").First(&game, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return nil
}

func (s *Service) membershipExists(gameID uint, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Membership{}).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Count(&count).Error
	if err != nil {
		return false, &PersistenceError{Err: err}
	}
	return count > 0, nil
}

func toReadModel(game *models.Game) (*GameWithPlayers, error) {
	loc, err := game.LocationData()
	if err != nil {
		return nil, err
	}

	players := make([]Player, 0, len(game.Memberships))
	for _, m := range game.Memberships {
		players = append(players, Player{
			UserID:    m.UserID,
			Status:    m.Status,
			FirstName: m.User.FirstName,
			LastName:  m.User.LastName,
		})
	}

	return &GameWithPlayers{
		ID:              game.ID,
		Date:            game.Date,
		PlayersRequired: game.PlayersRequired,
		Location:        loc,
		CreatedAt:       game.CreatedAt,
		Players:         players,
	}, nil
}
