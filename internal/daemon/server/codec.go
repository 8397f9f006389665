package server

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hatray/hatray/internal/models"
)

// Messages are well-known protobuf types. Records travel as Structs whose
// field names match the YAML/JSON keys of the model types.

func settingsToStruct(s models.ConnectionSettings) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"app_url": structpb.NewStringValue(s.AppURL),
		"token":   structpb.NewStringValue(s.Token),
	}}
}

func settingsFromStruct(s *structpb.Struct) models.ConnectionSettings {
	return models.ConnectionSettings{
		AppURL: stringField(s, "app_url"),
		Token:  stringField(s, "token"),
	}
}

func statusToStruct(r models.APIStatusResult) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"status":  structpb.NewStringValue(string(r.Status)),
		"message": structpb.NewStringValue(r.Message),
	}}
}

func statusFromStruct(s *structpb.Struct) models.APIStatusResult {
	return models.APIStatusResult{
		Status:  models.APIStatus(stringField(s, "status")),
		Message: stringField(s, "message"),
	}
}

func entityToStruct(e models.BooleanEntity) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":            structpb.NewStringValue(e.ID),
		"state":         structpb.NewStringValue(e.State),
		"friendly_name": structpb.NewStringValue(e.FriendlyName),
	}}
}

func entityFromStruct(s *structpb.Struct) models.BooleanEntity {
	return models.BooleanEntity{
		ID:           stringField(s, "id"),
		State:        stringField(s, "state"),
		FriendlyName: stringField(s, "friendly_name"),
	}
}

func entitiesToList(entities []models.BooleanEntity) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(entities))}
	for _, e := range entities {
		list.Values = append(list.Values, structpb.NewStructValue(entityToStruct(e)))
	}
	return list
}

func entitiesFromList(list *structpb.ListValue) []models.BooleanEntity {
	entities := make([]models.BooleanEntity, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		entities = append(entities, entityFromStruct(v.GetStructValue()))
	}
	return entities
}

func selectionToStruct(e models.BooleanEntity, selected bool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"entity":   structpb.NewStructValue(entityToStruct(e)),
		"selected": structpb.NewBoolValue(selected),
	}}
}

func selectionFromStruct(s *structpb.Struct) (models.BooleanEntity, bool) {
	fields := s.GetFields()
	return entityFromStruct(fields["entity"].GetStructValue()), fields["selected"].GetBoolValue()
}

func toggleResultsToList(results []models.ToggleResult) (*structpb.ListValue, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(results))}
	for _, r := range results {
		attrs, err := structpb.NewStruct(r.Attributes)
		if err != nil {
			return nil, fmt.Errorf("encode attributes of %s: %w", r.EntityID, err)
		}
		list.Values = append(list.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"entity_id":  structpb.NewStringValue(r.EntityID),
			"state":      structpb.NewStringValue(r.State),
			"attributes": structpb.NewStructValue(attrs),
		}}))
	}
	return list, nil
}

func toggleResultsFromList(list *structpb.ListValue) []models.ToggleResult {
	results := make([]models.ToggleResult, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		s := v.GetStructValue()
		results = append(results, models.ToggleResult{
			EntityID:   stringField(s, "entity_id"),
			State:      stringField(s, "state"),
			Attributes: s.GetFields()["attributes"].GetStructValue().AsMap(),
		})
	}
	return results
}

func daemonInfoToStruct(info *models.DaemonInfo) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"version":    structpb.NewNumberValue(float64(info.Version)),
		"host":       structpb.NewStringValue(info.Host),
		"port":       structpb.NewNumberValue(float64(info.Port)),
		"web_port":   structpb.NewNumberValue(float64(info.WebPort)),
		"pid":        structpb.NewNumberValue(float64(info.PID)),
		"started_at": structpb.NewStringValue(info.StartedAt.Format(time.RFC3339)),
	}}
}

func daemonInfoFromStruct(s *structpb.Struct) *models.DaemonInfo {
	fields := s.GetFields()
	info := &models.DaemonInfo{
		Version: int(fields["version"].GetNumberValue()),
		Host:    stringField(s, "host"),
		Port:    int(fields["port"].GetNumberValue()),
		WebPort: int(fields["web_port"].GetNumberValue()),
		PID:     int(fields["pid"].GetNumberValue()),
	}
	if t, err := time.Parse(time.RFC3339, stringField(s, "started_at")); err == nil {
		info.StartedAt = t
	}
	return info
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}
