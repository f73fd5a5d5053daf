package v1

import (
	"github.com/shenikar/urban_monitoring_system/internal/agent"
	"github.com/shenikar/urban_monitoring_system/internal/ingest"
	"github.com/shenikar/urban_monitoring_system/internal/models"
)

// DTOToRawMessage преобразует запрос в сырое сообщение телеметрии
func DTOToRawMessage(dto TelemetryRequest) ingest.RawMessage {
	return ingest.RawMessage{
		Topic:   dto.Topic,
		Payload: []byte(dto.Payload),
	}
}

// ModelToEventResponse преобразует событие в DTO для ответа
func ModelToEventResponse(event *models.SensorEvent) *EventResponse {
	if event == nil {
		return nil
	}
	return &EventResponse{
		ID:         event.ID,
		District:   event.District,
		SensorType: event.SensorType,
		Value:      event.Value,
		Unit:       event.Unit,
		Severity:   event.Severity.String(),
		Timestamp:  event.Timestamp,
		Topic:      event.Topic,
	}
}

// ModelToActionResponse преобразует действие в DTO для ответа
func ModelToActionResponse(action *models.Action) *ActionResponse {
	if action == nil {
		return nil
	}
	resp := &ActionResponse{
		ID:         action.ID,
		CreatedAt:  action.CreatedAt,
		Origin:     string(action.Origin),
		Source:     action.Source,
		Target:     action.Target,
		ActionType: string(action.ActionType),
		Reason:     action.Reason,
		Detail:     action.Detail,
	}
	if action.EventSnapshot != nil {
		resp.EventID = action.EventSnapshot.ID
	}
	return resp
}

// SnapshotToDistrictResponse преобразует состояние агента района в DTO
func SnapshotToDistrictResponse(s agent.DistrictSnapshot) *DistrictResponse {
	resp := &DistrictResponse{
		District:      s.District,
		State:         string(s.State),
		LastEvent:     ModelToEventResponse(s.LastEvent),
		LastAction:    ModelToActionResponse(s.LastAction),
		CooldownUntil: s.CooldownUntil,
		HistorySize:   s.HistorySize,
		MailboxDepth:  s.MailboxDepth,
		Stats:         DistrictStatsResponse(s.Stats),
	}
	if s.CooldownSeverity != models.SeverityUnknown {
		resp.CooldownSeverity = s.CooldownSeverity.String()
	}
	if s.LastCommand != nil {
		resp.LastCommand = &CommandResponse{
			ActionID:   s.LastCommand.ActionID,
			Source:     s.LastCommand.Source,
			ActionType: string(s.LastCommand.ActionType),
			Reason:     s.LastCommand.Reason,
			Detail:     s.LastCommand.Detail,
			IssuedAt:   s.LastCommand.IssuedAt,
		}
	}
	return resp
}

// SnapshotsToDistrictResponses преобразует слайс состояний в слайс DTO
func SnapshotsToDistrictResponses(snapshots []agent.DistrictSnapshot) []*DistrictResponse {
	responses := make([]*DistrictResponse, len(snapshots))
	for i, s := range snapshots {
		responses[i] = SnapshotToDistrictResponse(s)
	}
	return responses
}

// SnapshotToCoordinatorResponse преобразует состояние координатора в DTO
func SnapshotToCoordinatorResponse(s agent.CoordinatorSnapshot) *CoordinatorResponse {
	resp := &CoordinatorResponse{
		Active:         make([]*EscalationResponse, len(s.Active)),
		Cooldowns:      s.Cooldowns,
		KnownDistricts: s.KnownDistricts,
		MailboxDepth:   s.MailboxDepth,
		Stats:          CoordinatorStatsResponse(s.Stats),
	}
	for i, esc := range s.Active {
		resp.Active[i] = &EscalationResponse{
			District:            esc.District,
			Severity:            esc.Severity.String(),
			EventID:             esc.EventID,
			SensorType:          esc.SensorType,
			Value:               esc.Value,
			ReceivedAt:          esc.ReceivedAt,
			RequestCoordination: esc.RequestCoordination,
		}
	}
	if s.LastPlan != nil {
		plan := &PlanResponse{
			TriggerKey: s.LastPlan.TriggerKey,
			Reason:     s.LastPlan.Reason,
			IssuedAt:   s.LastPlan.IssuedAt,
			Actions:    make([]*ActionResponse, len(s.LastPlan.Actions)),
		}
		for i := range s.LastPlan.Actions {
			plan.Actions[i] = ModelToActionResponse(&s.LastPlan.Actions[i])
		}
		resp.LastPlan = plan
	}
	return resp
}
