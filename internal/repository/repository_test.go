package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RepositoryTestSuite struct {
	suite.Suite
	db        *gorm.DB
	users     UserRepository
	assets    AssetRepository
	playlists PlaylistRepository
	comments  CommentRepository
	listens   ListenRepository
}

func (suite *RepositoryTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.Playlist{},
		&models.Track{},
		&models.Topic{},
		&models.Comment{},
		&models.Listen{},
	))

	suite.users = NewUserRepository(suite.db)
	suite.assets = NewAssetRepository(suite.db)
	suite.playlists = NewPlaylistRepository(suite.db)
	suite.comments = NewCommentRepository(suite.db)
	suite.listens = NewListenRepository(suite.db)
}

func (suite *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *RepositoryTestSuite) createUser(login string) *models.User {
	user := &models.User{Login: login, Email: login + "@example.com", PasswordHash: "x"}
	suite.Require().NoError(suite.users.Create(user))
	return user
}

func (suite *RepositoryTestSuite) createAsset(owner *models.User, title string) *models.Asset {
	asset := &models.Asset{UserID: owner.ID, Title: title, Published: true}
	suite.Require().NoError(suite.assets.Create(asset))
	return asset
}

func (suite *RepositoryTestSuite) TestUserCreate_PreDeleted() {
	user := &models.User{Login: "spammer", Email: "s@example.com", PasswordHash: "x", IsSpam: true}
	user.MarkDeleted(time.Now())
	suite.Require().NoError(suite.users.Create(user))

	_, err := suite.users.FindByLogin("spammer", false)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	found, err := suite.users.FindByLogin("spammer", true)
	suite.Require().NoError(err)
	suite.True(found.IsDeleted())
	suite.True(found.IsSpam)

	exists, err := suite.users.ExistsWithLoginOrEmail("spammer", "other@example.com")
	suite.Require().NoError(err)
	suite.True(exists)
}

func (suite *RepositoryTestSuite) TestAssetCreate_BumpsCounter() {
	user := suite.createUser("sudara")
	suite.createAsset(user, "Polka")
	suite.createAsset(user, "Waltz")

	reloaded, err := suite.users.FindByID(user.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), reloaded.AssetsCount)

	assets, total, err := suite.assets.List(AssetFilter{UserID: &user.ID, Page: 1, PageSize: 1})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(assets, 1)
}

func (suite *RepositoryTestSuite) TestAssetCreate_StoresDraftUnpublished() {
	user := suite.createUser("sudara")
	draft := &models.Asset{UserID: user.ID, Title: "draft", Published: false}
	suite.Require().NoError(suite.assets.Create(draft))
	suite.False(draft.Published)

	var stored models.Asset
	suite.Require().NoError(suite.db.First(&stored, draft.ID).Error)
	suite.False(stored.Published)

	assets, total, err := suite.assets.List(AssetFilter{UserID: &user.ID, PublishedOnly: true})
	suite.Require().NoError(err)
	suite.Zero(total)
	suite.Empty(assets)
}

func (suite *RepositoryTestSuite) TestAssetCreate_UnknownOwnerRollsBack() {
	err := suite.assets.Create(&models.Asset{UserID: 999, Title: "ghost"})
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Asset{}).Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *RepositoryTestSuite) TestFirstCreatedAt() {
	user := suite.createUser("sudara")

	first, err := suite.assets.FirstCreatedAt(user.ID)
	suite.Require().NoError(err)
	suite.Nil(first)

	old := &models.Asset{UserID: user.ID, Title: "Old", CreatedAt: time.Now().AddDate(0, 0, -10)}
	suite.Require().NoError(suite.assets.Create(old))
	suite.createAsset(user, "New")

	first, err = suite.assets.FirstCreatedAt(user.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(first)
	suite.WithinDuration(old.CreatedAt, *first, time.Second)
}

func (suite *RepositoryTestSuite) TestAppendTrack_PositionsAndCounter() {
	user := suite.createUser("dj")
	playlist := &models.Playlist{UserID: user.ID, Title: "Set"}
	suite.Require().NoError(suite.playlists.Create(playlist))

	for i := 0; i < 3; i++ {
		track, err := suite.playlists.AppendTrack(playlist.ID, suite.createAsset(user, "a").ID)
		suite.Require().NoError(err)
		suite.Equal(i+1, track.Position)
		suite.Equal(user.ID, track.UserID)
	}

	reloaded, err := suite.playlists.FindByID(playlist.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), reloaded.TracksCount)

	tracks, err := suite.playlists.ListTracks(playlist.ID)
	suite.Require().NoError(err)
	suite.Len(tracks, 3)
	suite.Equal("a", tracks[0].Asset.Title)
}

func (suite *RepositoryTestSuite) TestAddFavorite_SinglePlaylist() {
	fan := suite.createUser("fan")
	artist := suite.createUser("artist")
	first := suite.createAsset(artist, "One")
	second := suite.createAsset(artist, "Two")

	p1, t1, err := suite.playlists.AddFavorite(fan.ID, first.ID)
	suite.Require().NoError(err)
	p2, t2, err := suite.playlists.AddFavorite(fan.ID, second.ID)
	suite.Require().NoError(err)

	suite.Equal(p1.ID, p2.ID)
	suite.True(p1.IsFavorite)
	suite.Equal(1, t1.Position)
	suite.Equal(2, t2.Position)
	suite.True(t2.IsFavorite)

	playlists, err := suite.playlists.ListByUser(fan.ID, true)
	suite.Require().NoError(err)
	suite.Len(playlists, 1)
	suite.Equal(int64(2), playlists[0].TracksCount)

	fav, err := suite.playlists.FindFavorite(fan.ID, second.ID)
	suite.Require().NoError(err)
	suite.Equal(t2.ID, fav.ID)
}

func (suite *RepositoryTestSuite) TestListenCreate_BumpsCounters() {
	artist := suite.createUser("artist")
	asset := suite.createAsset(artist, "Loop")

	suite.Require().NoError(suite.listens.Create(&models.Listen{AssetID: asset.ID, TrackOwnerID: artist.ID}))
	suite.Require().NoError(suite.listens.Create(&models.Listen{AssetID: asset.ID, TrackOwnerID: artist.ID}))

	reloadedAsset, err := suite.assets.FindByID(asset.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), reloadedAsset.ListensCount)

	reloadedArtist, err := suite.users.FindByID(artist.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), reloadedArtist.ListensCount)

	count, err := suite.listens.CountByAsset(asset.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *RepositoryTestSuite) TestComments_PrivateAndDuplicates() {
	artist := suite.createUser("artist")
	asset := suite.createAsset(artist, "Loop")

	suite.Require().NoError(suite.comments.Create(&models.Comment{
		CommentableType: models.CommentableAsset, CommentableID: asset.ID, UserID: artist.ID,
		Body: "public", RemoteIP: "1.1.1.1",
	}))
	suite.Require().NoError(suite.comments.Create(&models.Comment{
		CommentableType: models.CommentableAsset, CommentableID: asset.ID, UserID: artist.ID,
		Body: "psst", RemoteIP: "1.1.1.1", IsPrivate: true,
	}))

	public, total, err := suite.comments.List(CommentFilter{CommentableType: models.CommentableAsset, CommentableID: asset.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal("public", public[0].Body)

	_, total, err = suite.comments.List(CommentFilter{CommentableType: models.CommentableAsset, CommentableID: asset.ID, IncludePrivate: true})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)

	dup, err := suite.comments.ExistsDuplicate(models.CommentableAsset, asset.ID, "public", "1.1.1.1")
	suite.Require().NoError(err)
	suite.True(dup)

	dup, err = suite.comments.ExistsDuplicate(models.CommentableAsset, asset.ID, "public", "2.2.2.2")
	suite.Require().NoError(err)
	suite.False(dup)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
