package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/louisbranch/torchlight/internal/combat/domain"
	"github.com/louisbranch/torchlight/internal/combat/projection"
	"github.com/louisbranch/torchlight/internal/combat/service"
	"github.com/louisbranch/torchlight/internal/storage"
)

// ParticipantSeedInput describes one combatant in a combat start request.
type ParticipantSeedInput struct {
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	EntityID   string `json:"entity_id,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
}

// CombatStartInput represents the MCP tool input for starting a combat.
type CombatStartInput struct {
	ChapterID    string                 `json:"chapter_id"`
	Participants []ParticipantSeedInput `json:"participants"`
}

// CombatStartResult represents the MCP tool output for starting a combat.
type CombatStartResult struct {
	CombatID string `json:"combat_id"`
}

// CombatIDInput represents tool inputs addressing a combat session.
type CombatIDInput struct {
	CombatID string `json:"combat_id"`
}

// ChapterIDInput represents tool inputs addressing a chapter.
type ChapterIDInput struct {
	ChapterID string `json:"chapter_id"`
}

// ParticipantIDInput represents tool inputs addressing a participant.
type ParticipantIDInput struct {
	ParticipantID string `json:"participant_id"`
}

// SetInitiativeInput represents the MCP tool input for an initiative change.
type SetInitiativeInput struct {
	ParticipantID string `json:"participant_id"`
	Initiative    int    `json:"initiative"`
}

// AddParticipantInput represents the MCP tool input for a mid-combat joiner.
type AddParticipantInput struct {
	CombatID   string `json:"combat_id"`
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	EntityID   string `json:"entity_id,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
}

// AddEffectInput represents the MCP tool input for attaching an effect.
type AddEffectInput struct {
	CombatID      string `json:"combat_id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Duration      int    `json:"duration"`
}

// EffectIDInput represents tool inputs addressing an effect.
type EffectIDInput struct {
	EffectID string `json:"effect_id"`
}

// IDResult represents tool outputs that return a created ID.
type IDResult struct {
	ID string `json:"id"`
}

// StatusResult represents tool outputs that only acknowledge a mutation.
type StatusResult struct {
	Status string `json:"status"`
}

// ParticipantResult represents one combatant in a combat state snapshot.
type ParticipantResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	EntityID   string `json:"entity_id,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	Active     bool   `json:"active"`
}

// EffectResult represents one timed effect in a combat state snapshot.
type EffectResult struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Duration      int    `json:"duration"`
	TotalDuration int    `json:"total_duration"`
}

// CombatStateResult represents the MCP tool output for a combat state read.
type CombatStateResult struct {
	Active       bool                `json:"active"`
	CombatID     string              `json:"combat_id,omitempty"`
	Round        int                 `json:"round,omitempty"`
	Participants []ParticipantResult `json:"participants,omitempty"`
	Effects      []EffectResult      `json:"effects,omitempty"`
}

// OpponentResult represents one roster opponent.
type OpponentResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	MaxHP      int    `json:"max_hp"`
	ArmorClass int    `json:"armor_class"`
	Notes      string `json:"notes,omitempty"`
}

// OpponentListResult represents the MCP tool output for a roster listing.
type OpponentListResult struct {
	Opponents []OpponentResult `json:"opponents"`
}

// combatStartTool defines the MCP tool schema for starting a combat.
func combatStartTool() mcp.Tool {
	return mcp.NewTool(
		"combat_start",
		mcp.WithDescription("Starts a combat session in a chapter with seed participants"),
		mcp.WithInputSchema[CombatStartInput](),
		mcp.WithOutputSchema[CombatStartResult](),
	)
}

// combatStartHandler creates a combat session.
func combatStartHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input CombatStartInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid combat start arguments", err), nil
		}

		seeds := make([]domain.ParticipantSeed, 0, len(input.Participants))
		for _, participant := range input.Participants {
			seeds = append(seeds, domain.ParticipantSeed{
				Name:       participant.Name,
				Initiative: participant.Initiative,
				EntityID:   participant.EntityID,
				EntityType: storage.EntityType(participant.EntityType),
			})
		}

		combatID, err := engine.StartCombat(ctx, service.StartCombatInput{
			ChapterID:    input.ChapterID,
			Participants: seeds,
		})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("combat start failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(CombatStartResult{CombatID: combatID}), nil
	}
}

// combatStateTool defines the MCP tool schema for reading combat state.
func combatStateTool() mcp.Tool {
	return mcp.NewTool(
		"combat_state",
		mcp.WithDescription("Reads the full state of a chapter's running combat"),
		mcp.WithInputSchema[ChapterIDInput](),
		mcp.WithOutputSchema[CombatStateResult](),
	)
}

// combatStateHandler assembles the combat snapshot for a chapter.
func combatStateHandler(projector *projection.Projector) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input ChapterIDInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid combat state arguments", err), nil
		}

		state, err := projector.GetFullState(ctx, input.ChapterID)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("combat state failed", err), nil
		}
		if state == nil {
			return mcp.NewToolResultStructuredOnly(CombatStateResult{Active: false}), nil
		}

		result := CombatStateResult{
			Active:   true,
			CombatID: state.Session.ID,
			Round:    state.Session.Round,
		}
		for _, participant := range state.Participants {
			result.Participants = append(result.Participants, ParticipantResult{
				ID:         participant.ID,
				Name:       participant.Name,
				Initiative: participant.Initiative,
				EntityID:   participant.EntityID,
				EntityType: string(participant.EntityType),
				Active:     participant.ID == state.Session.ActiveParticipantID,
			})
		}
		for _, effect := range state.Effects {
			result.Effects = append(result.Effects, EffectResult{
				ID:            effect.ID,
				ParticipantID: effect.ParticipantID,
				Name:          effect.Name,
				Description:   effect.Description,
				Duration:      effect.Duration,
				TotalDuration: effect.TotalDuration,
			})
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

// combatAdvanceTurnTool defines the MCP tool schema for turn advancement.
func combatAdvanceTurnTool() mcp.Tool {
	return mcp.NewTool(
		"combat_advance_turn",
		mcp.WithDescription("Advances the combat to the next participant in initiative order"),
		mcp.WithInputSchema[CombatIDInput](),
		mcp.WithOutputSchema[StatusResult](),
	)
}

// combatAdvanceTurnHandler advances one turn.
func combatAdvanceTurnHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input CombatIDInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid advance turn arguments", err), nil
		}
		if err := engine.AdvanceTurn(ctx, input.CombatID); err != nil {
			return mcp.NewToolResultErrorFromErr("advance turn failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(StatusResult{Status: "advanced"}), nil
	}
}

// combatFinishTool defines the MCP tool schema for ending a combat.
func combatFinishTool() mcp.Tool {
	return mcp.NewTool(
		"combat_finish",
		mcp.WithDescription("Marks a combat session as finished"),
		mcp.WithInputSchema[CombatIDInput](),
		mcp.WithOutputSchema[StatusResult](),
	)
}

// combatFinishHandler ends a combat session.
func combatFinishHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input CombatIDInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid finish arguments", err), nil
		}
		if err := engine.FinishCombat(ctx, input.CombatID); err != nil {
			return mcp.NewToolResultErrorFromErr("finish combat failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(StatusResult{Status: "finished"}), nil
	}
}

// combatAddParticipantTool defines the MCP tool schema for mid-combat joins.
func combatAddParticipantTool() mcp.Tool {
	return mcp.NewTool(
		"combat_add_participant",
		mcp.WithDescription("Enrolls a combatant into a running combat"),
		mcp.WithInputSchema[AddParticipantInput](),
		mcp.WithOutputSchema[IDResult](),
	)
}

// combatAddParticipantHandler enrolls a combatant.
func combatAddParticipantHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input AddParticipantInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid add participant arguments", err), nil
		}
		participantID, err := engine.AddParticipant(ctx, service.AddParticipantInput{
			CombatID:   input.CombatID,
			Name:       input.Name,
			Initiative: input.Initiative,
			EntityID:   input.EntityID,
			EntityType: storage.EntityType(input.EntityType),
		})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("add participant failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(IDResult{ID: participantID}), nil
	}
}

// combatRemoveParticipantTool defines the MCP tool schema for removals.
func combatRemoveParticipantTool() mcp.Tool {
	return mcp.NewTool(
		"combat_remove_participant",
		mcp.WithDescription("Removes a combatant from its combat"),
		mcp.WithInputSchema[ParticipantIDInput](),
		mcp.WithOutputSchema[StatusResult](),
	)
}

// combatRemoveParticipantHandler removes a combatant.
func combatRemoveParticipantHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input ParticipantIDInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid remove participant arguments", err), nil
		}
		if err := engine.RemoveParticipant(ctx, input.ParticipantID); err != nil {
			return mcp.NewToolResultErrorFromErr("remove participant failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(StatusResult{Status: "removed"}), nil
	}
}

// combatSetInitiativeTool defines the MCP tool schema for initiative changes.
func combatSetInitiativeTool() mcp.Tool {
	return mcp.NewTool(
		"combat_set_initiative",
		mcp.WithDescription("Sets a participant's initiative for subsequent turn ordering"),
		mcp.WithInputSchema[SetInitiativeInput](),
		mcp.WithOutputSchema[StatusResult](),
	)
}

// combatSetInitiativeHandler updates a participant's initiative.
func combatSetInitiativeHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input SetInitiativeInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid set initiative arguments", err), nil
		}
		if err := engine.UpdateInitiative(ctx, input.ParticipantID, input.Initiative); err != nil {
			return mcp.NewToolResultErrorFromErr("set initiative failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(StatusResult{Status: "updated"}), nil
	}
}

// combatAddEffectTool defines the MCP tool schema for attaching effects.
func combatAddEffectTool() mcp.Tool {
	return mcp.NewTool(
		"combat_add_effect",
		mcp.WithDescription("Attaches a timed effect to a participant, measured in rounds"),
		mcp.WithInputSchema[AddEffectInput](),
		mcp.WithOutputSchema[IDResult](),
	)
}

// combatAddEffectHandler attaches an effect.
func combatAddEffectHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input AddEffectInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid add effect arguments", err), nil
		}
		effectID, err := engine.AddEffect(ctx, service.AddEffectInput{
			CombatID:      input.CombatID,
			ParticipantID: input.ParticipantID,
			Name:          input.Name,
			Description:   input.Description,
			Duration:      input.Duration,
		})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("add effect failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(IDResult{ID: effectID}), nil
	}
}

// combatRemoveEffectTool defines the MCP tool schema for dispelling effects.
func combatRemoveEffectTool() mcp.Tool {
	return mcp.NewTool(
		"combat_remove_effect",
		mcp.WithDescription("Removes a timed effect before its duration runs out"),
		mcp.WithInputSchema[EffectIDInput](),
		mcp.WithOutputSchema[StatusResult](),
	)
}

// combatRemoveEffectHandler dispels an effect.
func combatRemoveEffectHandler(engine *service.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input EffectIDInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid remove effect arguments", err), nil
		}
		if err := engine.RemoveEffect(ctx, input.EffectID); err != nil {
			return mcp.NewToolResultErrorFromErr("remove effect failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(StatusResult{Status: "removed"}), nil
	}
}

// rosterListOpponentsTool defines the MCP tool schema for roster listings.
func rosterListOpponentsTool() mcp.Tool {
	return mcp.NewTool(
		"roster_list_opponents",
		mcp.WithDescription("Lists the opponent roster available for encounters"),
		mcp.WithOutputSchema[OpponentListResult](),
	)
}

// rosterListOpponentsHandler lists the opponent roster.
func rosterListOpponentsHandler(opponents storage.OpponentStore) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		records, err := opponents.ListOpponents(ctx)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("list opponents failed", err), nil
		}

		result := OpponentListResult{Opponents: make([]OpponentResult, 0, len(records))}
		for _, record := range records {
			result.Opponents = append(result.Opponents, OpponentResult{
				ID:         record.ID,
				Name:       record.Name,
				Level:      record.Level,
				MaxHP:      record.MaxHP,
				ArmorClass: record.ArmorClass,
				Notes:      record.Notes,
			})
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}
