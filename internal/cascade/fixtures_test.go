package cascade

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.Playlist{},
		&models.Track{},
		&models.Topic{},
		&models.Comment{},
		&models.Listen{},
	))

	return db
}

type fixture struct {
	t  *testing.T
	db *gorm.DB
}

func (f fixture) user(login string) *models.User {
	u := &models.User{Login: login, Email: login + "@example.com", PasswordHash: "x"}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f fixture) asset(owner *models.User, title string) *models.Asset {
	a := &models.Asset{UserID: owner.ID, Title: title, Published: true}
	require.NoError(f.t, f.db.Create(a).Error)
	require.NoError(f.t, f.db.Model(owner).UpdateColumn("assets_count", gorm.Expr("assets_count + 1")).Error)
	return a
}

func (f fixture) playlist(owner *models.User, title string) *models.Playlist {
	p := &models.Playlist{UserID: owner.ID, Title: title}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f fixture) track(p *models.Playlist, a *models.Asset) *models.Track {
	var count int64
	require.NoError(f.t, f.db.Model(&models.Track{}).Where("playlist_id = ?", p.ID).Count(&count).Error)

	tr := &models.Track{PlaylistID: p.ID, AssetID: a.ID, UserID: p.UserID, Position: int(count) + 1}
	require.NoError(f.t, f.db.Create(tr).Error)
	require.NoError(f.t, f.db.Model(p).UpdateColumn("tracks_count", gorm.Expr("tracks_count + 1")).Error)
	return tr
}

func (f fixture) topic(owner *models.User, title string) *models.Topic {
	tp := &models.Topic{UserID: owner.ID, Title: title}
	require.NoError(f.t, f.db.Create(tp).Error)
	return tp
}

func (f fixture) commentOnAsset(a *models.Asset, commenter *models.User, body string) *models.Comment {
	c := &models.Comment{
		CommentableType: models.CommentableAsset,
		CommentableID:   a.ID,
		UserID:          a.UserID,
		Body:            body,
	}
	if commenter != nil {
		c.CommenterID = &commenter.ID
	}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f fixture) commentOnTopic(tp *models.Topic, commenter *models.User, body string) *models.Comment {
	c := &models.Comment{
		CommentableType: models.CommentableTopic,
		CommentableID:   tp.ID,
		UserID:          tp.UserID,
		Body:            body,
	}
	if commenter != nil {
		c.CommenterID = &commenter.ID
	}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f fixture) listen(a *models.Asset, listener *models.User) *models.Listen {
	l := &models.Listen{AssetID: a.ID, TrackOwnerID: a.UserID}
	if listener != nil {
		l.ListenerID = &listener.ID
	}
	require.NoError(f.t, f.db.Create(l).Error)
	require.NoError(f.t, f.db.Model(&models.Asset{}).Where("id = ?", a.ID).
		UpdateColumn("listens_count", gorm.Expr("listens_count + 1")).Error)
	require.NoError(f.t, f.db.Model(&models.User{}).Where("id = ?", a.UserID).
		UpdateColumn("listens_count", gorm.Expr("listens_count + 1")).Error)
	return l
}

func (f fixture) count(model interface{}) int64 {
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f fixture) reloadUser(id uint64) *models.User {
	var u models.User
	require.NoError(f.t, f.db.Unscoped().First(&u, id).Error)
	return &u
}

func (f fixture) reloadPlaylist(id uint64) *models.Playlist {
	var p models.Playlist
	require.NoError(f.t, f.db.Unscoped().First(&p, id).Error)
	return &p
}

func (f fixture) reloadAsset(id uint64) *models.Asset {
	var a models.Asset
	require.NoError(f.t, f.db.Unscoped().First(&a, id).Error)
	return &a
}

// positions returns the positions of the live tracks of a playlist in order.
func (f fixture) positions(playlistID uint64) []int {
	var positions []int
	require.NoError(f.t, f.db.Model(&models.Track{}).
		Where("playlist_id = ?", playlistID).
		Order("position").
		Pluck("position", &positions).Error)
	return positions
}

// sudaraWorld builds the account used by the post-hoc removal scenarios:
// 3 assets, 2 playlists, 4 tracks, 5 comments and 2 listens reachable from
// sudara, next to arthur's unrelated data.
type sudaraWorld struct {
	sudara, arthur     *models.User
	assets             []*models.Asset
	playlists          []*models.Playlist
	arthurAsset        *models.Asset
	arthurPlaylist     *models.Playlist
	ownComment         *models.Comment
	arthurTopic        *models.Topic
	arthurTopicComment *models.Comment
}

func buildSudara(f fixture) sudaraWorld {
	w := sudaraWorld{}
	w.sudara = f.user("sudara")
	w.arthur = f.user("arthur")

	for _, title := range []string{"Polka", "Waltz", "March"} {
		w.assets = append(w.assets, f.asset(w.sudara, title))
	}
	w.playlists = append(w.playlists, f.playlist(w.sudara, "Mixtape"), f.playlist(w.sudara, "Live"))

	f.track(w.playlists[0], w.assets[0])
	f.track(w.playlists[0], w.assets[1])
	f.track(w.playlists[1], w.assets[2])
	f.track(w.playlists[1], w.assets[0])

	w.arthurAsset = f.asset(w.arthur, "Nocturne")
	w.arthurPlaylist = f.playlist(w.arthur, "Arthur's picks")
	f.track(w.arthurPlaylist, w.arthurAsset)
	w.arthurTopic = f.topic(w.arthur, "Gear talk")

	// sudara on arthur's asset and topic
	f.commentOnAsset(w.arthurAsset, w.sudara, "lovely")
	w.arthurTopicComment = f.commentOnTopic(w.arthurTopic, w.sudara, "agreed")
	// others on sudara's asset
	f.commentOnAsset(w.assets[0], w.arthur, "great mix")
	f.commentOnAsset(w.assets[0], nil, "guest says hi")
	// sudara on own asset: reachable as commenter and as commentable
	w.ownComment = f.commentOnAsset(w.assets[1], w.sudara, "thanks all")

	// arthur's own comment on his asset survives
	f.commentOnAsset(w.arthurAsset, w.arthur, "new version soon")

	f.listen(w.assets[0], w.arthur)
	f.listen(w.arthurAsset, w.sudara)
	// arthur listening to himself survives
	f.listen(w.arthurAsset, w.arthur)

	return w
}
