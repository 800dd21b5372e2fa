package reward

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/lock"
	"engage-controlplane/pkg/repository"
	"engage-controlplane/services/campaign"
	"engage-controlplane/services/wallet"
)

// Service generates audit reports and runs reward distributions. It reads
// campaign state through the shared repositories and writes value exclusively
// through the wallet service, so every coiin it moves lands on the hash chain.
type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	cfg     *config.Config
	locks   lock.Locker
	wallets *wallet.Service

	campaigns    repository.Repository[campaign.Campaign]
	participants repository.Repository[campaign.Participant]
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Node    *snowflake.Node
	Config  *config.Config
	Locks   lock.Locker
	Wallets *wallet.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		node:    p.Node,
		cfg:     p.Config,
		locks:   p.Locks,
		wallets: p.Wallets,

		campaigns:    repository.ProvideStore[campaign.Campaign](p.DB),
		participants: repository.ProvideStore[campaign.Participant](p.DB),
	}
}
