package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"fingreat/internal/types"
)

// BoltStore persists conversations to a BoltDB file: one bucket per agent type, keyed by user id.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open conversation db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, a := range AgentTypes {
			if _, err := tx.CreateBucketIfNotExists([]byte(a)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

func load(bkt *bolt.Bucket, user string) (userData, error) {
	var ud userData
	raw := bkt.Get([]byte(user))
	if raw == nil {
		return ud, nil
	}
	err := json.Unmarshal(raw, &ud)
	return ud, err
}

func save(bkt *bolt.Bucket, user string, ud userData) error {
	raw, err := json.Marshal(ud)
	if err != nil {
		return err
	}
	return bkt.Put([]byte(user), raw)
}

// mutate runs fn over the user's record inside one write transaction.
func (b *BoltStore) mutate(agent, user string, fn func(*userData) bool) error {
	if err := validAgent(agent); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(agent))
		ud, err := load(bkt, user)
		if err != nil {
			return err
		}
		if !fn(&ud) {
			return nil
		}
		return save(bkt, user, ud)
	})
}

func (b *BoltStore) read(agent, user string) (userData, error) {
	if err := validAgent(agent); err != nil {
		return userData{}, err
	}
	var ud userData
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		ud, err = load(tx.Bucket([]byte(agent)), user)
		return err
	})
	return ud, err
}

func (b *BoltStore) Append(_ context.Context, agent, user string, turn types.Turn) error {
	return b.mutate(agent, user, func(ud *userData) bool {
		ud.Turns = append(ud.Turns, turn)
		return true
	})
}

func (b *BoltStore) SetLastReply(_ context.Context, agent, user, reply string) error {
	return b.mutate(agent, user, func(ud *userData) bool {
		if len(ud.Turns) == 0 {
			return false
		}
		ud.Turns[len(ud.Turns)-1].Assistant = reply
		return true
	})
}

func (b *BoltStore) History(_ context.Context, agent, user string) ([]types.Turn, error) {
	ud, err := b.read(agent, user)
	if err != nil {
		return nil, err
	}
	if ud.Turns == nil {
		return []types.Turn{}, nil
	}
	return ud.Turns, nil
}

func (b *BoltStore) Clear(_ context.Context, agent, user string) error {
	if err := validAgent(agent); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		for _, a := range clearTargets(agent) {
			if err := tx.Bucket([]byte(a)).Delete([]byte(user)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltStore) Context(_ context.Context, agent, user string) (string, error) {
	ud, err := b.read(agent, user)
	return ud.Context, err
}

func (b *BoltStore) SetContext(_ context.Context, agent, user, text string) error {
	return b.mutate(agent, user, func(ud *userData) bool {
		ud.Context = text
		return true
	})
}
