// Package game provides functionality to query game servers using the Source Engine Query (A2S) protocol.
package game

import (
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/models"
	"github.com/woozymasta/a2s/pkg/a2s"
)

// Probe connects to the monitored game server via UDP and requests A2S_INFO.
// It returns live server details (name, map, players) or an error if the
// server is unreachable.
func Probe(options config.Game) (*models.ServerInfo, error) {
	client, err := a2s.New(options.Address, options.Port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.Timeout

	info, err := client.GetInfo()
	if err != nil {
		return nil, err
	}

	return &models.ServerInfo{
		Name:       info.Name,
		Map:        info.Map,
		Players:    info.Players,
		MaxPlayers: info.MaxPlayers,
	}, nil
}
