package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("rooms")
		collection.ListRule = nil
		collection.ViewRule = nil
		collection.CreateRule = nil
		collection.UpdateRule = nil
		collection.DeleteRule = nil

		// name field
		collection.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      100,
		})

		// status field
		collection.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"lobby", "active", "finished"},
		})

		// current_question field
		collection.Fields.Add(&core.NumberField{
			Name:     "current_question",
			Required: false,
			OnlyInt:  true,
		})

		// winners field
		collection.Fields.Add(&core.JSONField{
			Name:     "winners",
			Required: false,
			MaxSize:  2048,
		})

		// host_participant_id field (set once the first participant joins)
		collection.Fields.Add(&core.TextField{
			Name:     "host_participant_id",
			Required: false,
			Max:      15,
		})

		// expires_at field
		collection.Fields.Add(&core.DateField{
			Name:     "expires_at",
			Required: true,
		})

		// last_activity field
		collection.Fields.Add(&core.DateField{
			Name:     "last_activity",
			Required: true,
		})

		// Create indexes
		collection.Indexes = []string{
			"CREATE INDEX idx_rooms_expires ON rooms(expires_at)",
			"CREATE INDEX idx_rooms_activity ON rooms(last_activity)",
		}

		if err := app.Save(collection); err != nil {
			return err
		}

		// Create participants collection
		participants := core.NewBaseCollection("participants")
		participants.ListRule = nil
		participants.ViewRule = nil
		participants.CreateRule = nil
		participants.UpdateRule = nil
		participants.DeleteRule = nil

		// room_id relation
		participants.Fields.Add(&core.RelationField{
			Name:          "room_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  collection.Id,
			CascadeDelete: true,
		})

		// name field
		participants.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      50,
		})

		// role field
		participants.Fields.Add(&core.SelectField{
			Name:      "role",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"host", "player"},
		})

		// connected field
		participants.Fields.Add(&core.BoolField{
			Name:     "connected",
			Required: false, // Bool fields should not be required
		})

		// session_cookie field
		participants.Fields.Add(&core.TextField{
			Name:     "session_cookie",
			Required: true,
			Max:      255,
		})

		// joined_at field
		participants.Fields.Add(&core.DateField{
			Name:     "joined_at",
			Required: true,
		})

		// last_seen field
		participants.Fields.Add(&core.DateField{
			Name:     "last_seen",
			Required: true,
		})

		// disconnected_at field
		participants.Fields.Add(&core.DateField{
			Name:     "disconnected_at",
			Required: false,
		})

		// Create indexes
		participants.Indexes = []string{
			"CREATE INDEX idx_participants_room ON participants(room_id)",
			"CREATE INDEX idx_participants_cookie ON participants(session_cookie)",
			"CREATE UNIQUE INDEX idx_participants_unique ON participants(session_cookie, room_id)",
		}

		if err := app.Save(participants); err != nil {
			return err
		}

		// Create session_events collection (append-only event log)
		events := core.NewBaseCollection("session_events")
		events.ListRule = nil
		events.ViewRule = nil
		events.CreateRule = nil
		events.UpdateRule = nil
		events.DeleteRule = nil

		// room_id relation
		events.Fields.Add(&core.RelationField{
			Name:          "room_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  collection.Id,
			CascadeDelete: true,
		})

		// seq field (monotonic per-room)
		events.Fields.Add(&core.NumberField{
			Name:     "seq",
			Required: true,
			OnlyInt:  true,
		})

		// type field
		events.Fields.Add(&core.TextField{
			Name:     "type",
			Required: true,
			Max:      50,
		})

		// payload field
		events.Fields.Add(&core.JSONField{
			Name:     "payload",
			Required: false,
			MaxSize:  10240,
		})

		// emitted_at field
		events.Fields.Add(&core.DateField{
			Name:     "emitted_at",
			Required: true,
		})

		// Create indexes
		events.Indexes = []string{
			"CREATE INDEX idx_session_events_room_seq ON session_events(room_id, seq)",
			"CREATE UNIQUE INDEX idx_session_events_unique ON session_events(room_id, seq)",
		}

		return app.Save(events)
	}, func(app core.App) error {
		// Down migration - delete in reverse order
		events, err := app.FindCollectionByNameOrId("session_events")
		if err == nil && events != nil {
			if err := app.Delete(events); err != nil {
				return err
			}
		}

		participants, err := app.FindCollectionByNameOrId("participants")
		if err == nil && participants != nil {
			if err := app.Delete(participants); err != nil {
				return err
			}
		}

		rooms, err := app.FindCollectionByNameOrId("rooms")
		if err == nil && rooms != nil {
			return app.Delete(rooms)
		}

		return nil
	})
}
