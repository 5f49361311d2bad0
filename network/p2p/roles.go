package p2p

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network/validator"
)

// AuthorityRoles assigns roles to peers: a peer whose key belongs to the active
// authority set is an authority, every other peer a full node. The peer IDs of the
// authorities are derived once per epoch.
type AuthorityRoles struct {
	log  zerolog.Logger
	view validator.ViewProvider

	mu          sync.Mutex
	epoch       uint64
	authorities map[peer.ID]struct{}
}

func NewAuthorityRoles(log zerolog.Logger, view validator.ViewProvider) *AuthorityRoles {
	return &AuthorityRoles{
		log:  log.With().Str("component", "authority_roles").Logger(),
		view: view,
	}
}

// Role returns the role of the peer under the active authority set.
func (r *AuthorityRoles) Role(pid peer.ID) quorum.Role {
	if r.IsAuthority(pid) {
		return quorum.RoleAuthority
	}
	return quorum.RoleFull
}

func (r *AuthorityRoles) IsAuthority(pid peer.ID) bool {
	set := r.view.Load().Authorities

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.authorities == nil || r.epoch != set.Epoch() {
		r.authorities = make(map[peer.ID]struct{}, set.Size())
		for _, key := range set.Keys() {
			id, err := PeerIDFromPublicKey(key)
			if err != nil {
				r.log.Warn().Err(err).Uint64("epoch", set.Epoch()).Msg("authority key has no peer ID")
				continue
			}
			r.authorities[id] = struct{}{}
		}
		r.epoch = set.Epoch()
	}

	_, ok := r.authorities[pid]
	return ok
}
