package cascade

import (
	"fmt"

	"github.com/yukikurage/soundshare-api/internal/models"
)

// Relation is one parent -> child edge of the ownership graph. Child rows
// belong to a parent when ForeignKey equals the parent id and, for
// polymorphic relations, TypeColumn equals TypeValue.
//
// Non-cascading relations are never walked. They exist so Verify can check
// that the rows they reference were reached through some other path.
type Relation struct {
	Parent     models.Kind
	Child      models.Kind
	ForeignKey string
	TypeColumn string
	TypeValue  string
	Cascade    bool
}

func (r Relation) String() string {
	if r.TypeColumn != "" {
		return fmt.Sprintf("%s -> %s(%s, %s=%s)", r.Parent, r.Child, r.ForeignKey, r.TypeColumn, r.TypeValue)
	}
	return fmt.Sprintf("%s -> %s(%s)", r.Parent, r.Child, r.ForeignKey)
}

// Graph is the validated, immutable ownership graph.
type Graph struct {
	root      models.Kind
	relations []Relation
	byParent  map[models.Kind][]Relation
}

var tables = map[models.Kind]string{
	models.KindUser:     "users",
	models.KindAsset:    "assets",
	models.KindPlaylist: "playlists",
	models.KindTrack:    "tracks",
	models.KindComment:  "comments",
	models.KindTopic:    "topics",
	models.KindListen:   "listens",
}

// TableFor returns the table holding rows of kind k.
func TableFor(k models.Kind) string {
	return tables[k]
}

// DefaultRelations is the ownership graph of the platform.
//
// Comments and listens tied to a user's assets are reached through the asset,
// so the direct user edges on comments.user_id and listens.track_owner_id do
// not cascade. Tracks in other users' playlists that point at the user's
// assets are reached through the asset as well.
func DefaultRelations() []Relation {
	return []Relation{
		{Parent: models.KindUser, Child: models.KindAsset, ForeignKey: "user_id", Cascade: true},
		{Parent: models.KindUser, Child: models.KindPlaylist, ForeignKey: "user_id", Cascade: true},
		{Parent: models.KindUser, Child: models.KindTopic, ForeignKey: "user_id", Cascade: true},
		{Parent: models.KindUser, Child: models.KindComment, ForeignKey: "commenter_id", Cascade: true},
		{Parent: models.KindUser, Child: models.KindListen, ForeignKey: "listener_id", Cascade: true},
		{Parent: models.KindUser, Child: models.KindComment, ForeignKey: "user_id"},
		{Parent: models.KindUser, Child: models.KindListen, ForeignKey: "track_owner_id"},
		{Parent: models.KindUser, Child: models.KindTrack, ForeignKey: "user_id"},

		{Parent: models.KindAsset, Child: models.KindComment, ForeignKey: "commentable_id",
			TypeColumn: "commentable_type", TypeValue: string(models.CommentableAsset), Cascade: true},
		{Parent: models.KindAsset, Child: models.KindTrack, ForeignKey: "asset_id", Cascade: true},
		{Parent: models.KindAsset, Child: models.KindListen, ForeignKey: "asset_id", Cascade: true},

		{Parent: models.KindPlaylist, Child: models.KindTrack, ForeignKey: "playlist_id", Cascade: true},

		{Parent: models.KindTopic, Child: models.KindComment, ForeignKey: "commentable_id",
			TypeColumn: "commentable_type", TypeValue: string(models.CommentableTopic), Cascade: true},
	}
}

// NewGraph validates relations and builds a graph rooted at root. Every kind
// in models.AllKinds must be reachable from root through cascading edges.
func NewGraph(root models.Kind, relations []Relation) (*Graph, error) {
	if _, ok := tables[root]; !ok {
		return nil, fmt.Errorf("%w: unknown root kind %q", ErrInvariantViolation, root)
	}

	byParent := make(map[models.Kind][]Relation)
	for _, rel := range relations {
		if _, ok := tables[rel.Parent]; !ok {
			return nil, fmt.Errorf("%w: unknown parent kind in %s", ErrInvariantViolation, rel)
		}
		if _, ok := tables[rel.Child]; !ok {
			return nil, fmt.Errorf("%w: unknown child kind in %s", ErrInvariantViolation, rel)
		}
		if rel.ForeignKey == "" {
			return nil, fmt.Errorf("%w: missing foreign key in %s", ErrInvariantViolation, rel)
		}
		if (rel.TypeColumn == "") != (rel.TypeValue == "") {
			return nil, fmt.Errorf("%w: incomplete discriminator in %s", ErrInvariantViolation, rel)
		}
		byParent[rel.Parent] = append(byParent[rel.Parent], rel)
	}

	reached := map[models.Kind]bool{root: true}
	queue := []models.Kind{root}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, rel := range byParent[k] {
			if rel.Cascade && !reached[rel.Child] {
				reached[rel.Child] = true
				queue = append(queue, rel.Child)
			}
		}
	}
	for _, k := range models.AllKinds {
		if !reached[k] {
			return nil, fmt.Errorf("%w: kind %q is not reachable from %q", ErrInvariantViolation, k, root)
		}
	}

	return &Graph{
		root:      root,
		relations: append([]Relation(nil), relations...),
		byParent:  byParent,
	}, nil
}

// MustNewGraph is NewGraph for static graphs; it panics on an invalid graph.
func MustNewGraph(root models.Kind, relations []Relation) *Graph {
	g, err := NewGraph(root, relations)
	if err != nil {
		panic(err)
	}
	return g
}

// DefaultGraph returns the platform graph rooted at users.
func DefaultGraph() *Graph {
	return MustNewGraph(models.KindUser, DefaultRelations())
}

// Root returns the kind the graph was validated from.
func (g *Graph) Root() models.Kind {
	return g.root
}

// Children returns the cascading relations fanning out of k.
func (g *Graph) Children(k models.Kind) []Relation {
	var out []Relation
	for _, rel := range g.byParent[k] {
		if rel.Cascade {
			out = append(out, rel)
		}
	}
	return out
}

// References returns every relation, cascading or not, whose parent is k.
func (g *Graph) References(k models.Kind) []Relation {
	return g.byParent[k]
}

// Relations returns a copy of all relations.
func (g *Graph) Relations() []Relation {
	return append([]Relation(nil), g.relations...)
}
