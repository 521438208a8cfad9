package chat

import (
	"fmt"
	"strings"

	"github.com/wardenhq/warden/internal/models"
)

// FormatStatus renders a snapshot as the human-readable status message.
// The optional info adds a live query footer when the A2S probe is enabled.
func FormatStatus(snap *models.Snapshot, info *models.ServerInfo) string {
	lines := []string{
		"🖥️ **Server Performance Report**",
		fmt.Sprintf("FPS: **%.1f** (Frame Time: avg %.1fms, max %.1fms)", snap.FPS, snap.FrameTimeAvg, snap.FrameTimeMax),
		fmt.Sprintf("Memory: **%d MB**", snap.Memory/1024),
		"",
		"👥 **Server Population**",
		fmt.Sprintf("Players: **%d**", snap.Players),
		fmt.Sprintf("AI Units: **%d**", snap.AI),
		fmt.Sprintf("Vehicles: **%d**", snap.Vehicles),
		"",
		"🌐 **Network Status**",
		fmt.Sprintf("Connected Clients: **%d**", snap.TotalClients),
		fmt.Sprintf("Clients with Packet Loss: **%d**", snap.PacketLossClients),
	}

	if info != nil {
		lines = append(lines,
			"",
			fmt.Sprintf("🎮 **%s** — %s (%d/%d)", info.Name, info.Map, info.Players, info.MaxPlayers),
		)
	}

	return strings.Join(lines, "\n")
}

// FormatBan renders a ban event as a notification message. Country codes
// resolved from the event's IP identifiers are appended when present.
func FormatBan(ban models.BanEvent, countries []string) string {
	expires := "Permanent"
	if ban.Expires != nil {
		expires = ban.Expires.UTC().Format("2006-01-02 15:04 UTC")
	}

	reason := ban.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	msg := fmt.Sprintf("🚫 **New Ban**\n**Player**: %s\n**Reason**: %s\n**Expires**: %s",
		ban.Player, reason, expires)

	if len(countries) > 0 {
		msg += fmt.Sprintf("\n**Location**: %s", strings.Join(countries, ", "))
	}

	return msg
}
