package migration

import (
	"context"
	"fmt"

	"github.com/energyaudit/auditmig/internal/model"
	"github.com/energyaudit/auditmig/internal/normalize"
	"github.com/energyaudit/auditmig/internal/remap"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/target"
)

// Buildings are copied verbatim.
func migrateBuildings(ctx context.Context, r source.Reader, tx target.Tx) (StepResult, error) {
	rows, err := r.Buildings(ctx)
	if err != nil {
		return StepResult{}, err
	}
	sr := StepResult{Read: len(rows)}
	if len(rows) == 0 {
		return sr, nil
	}
	sr.Written, err = tx.InsertBuildings(ctx, rows)
	return sr, err
}

func migrateOpenings(ctx context.Context, r source.Reader, tx target.Tx, c *normalize.Collector) (StepResult, error) {
	rows, err := r.Openings(ctx)
	if err != nil {
		return StepResult{}, err
	}
	sr := StepResult{Read: len(rows)}

	out := make([]model.Opening, 0, len(rows))
	for _, o := range rows {
		material, err := normalize.Validate("opening.material", o.Material, normalize.OpeningMaterial)
		if err := c.Add(err); err != nil {
			return sr, fmt.Errorf("opening %s/%s: %w", o.BuildingCode, o.Code, err)
		}
		glazing, err := normalize.Validate("opening.glazing", o.Glazing, normalize.OpeningGlazing)
		if err := c.Add(err); err != nil {
			return sr, fmt.Errorf("opening %s/%s: %w", o.BuildingCode, o.Code, err)
		}
		o.Material = material
		o.Glazing = glazing
		o.Type = normalize.Capitalize(o.Type)
		out = append(out, o)
	}
	if err := c.Err(); err != nil {
		return sr, err
	}
	if len(out) == 0 {
		return sr, nil
	}
	sr.Written, err = tx.InsertOpenings(ctx, out)
	return sr, err
}

// migrateRooms inserts rooms and records each generated id in ids, which is
// sealed once every room is mapped.
func migrateRooms(ctx context.Context, r source.Reader, tx target.Tx, c *normalize.Collector, ids *remap.RoomIDs) (StepResult, error) {
	rows, err := r.Rooms(ctx)
	if err != nil {
		return StepResult{}, err
	}
	sr := StepResult{Read: len(rows)}

	out := make([]model.Room, 0, len(rows))
	for _, rm := range rows {
		fields := []struct {
			name  string
			value **string
			vocab normalize.Vocabulary
		}{
			{"room.heating", &rm.Heating, normalize.RoomClimate},
			{"room.cooling", &rm.Cooling, normalize.RoomClimate},
			{"room.lighting", &rm.Lighting, normalize.RoomLighting},
		}
		for _, f := range fields {
			val, err := normalize.Validate(f.name, *f.value, f.vocab)
			if err := c.Add(err); err != nil {
				return sr, fmt.Errorf("room %d: %w", rm.ID, err)
			}
			if err == nil {
				*f.value = val
			}
		}
		out = append(out, rm)
	}
	if err := c.Err(); err != nil {
		return sr, err
	}

	if len(out) > 0 {
		assigned, err := tx.InsertRooms(ctx, out)
		if err != nil {
			return sr, err
		}
		if len(assigned) != len(out) {
			return sr, fmt.Errorf("destination returned %d room ids for %d rooms", len(assigned), len(out))
		}
		for _, a := range assigned {
			if err := ids.Put(a.Source, a.Dest); err != nil {
				return sr, err
			}
		}
		sr.Written = int64(len(assigned))
	}
	ids.Seal()
	return sr, nil
}

// migrateRoomOpenings rewrites each link's room id through ids. Links whose
// room has no mapping are left out and counted in Dropped.
func migrateRoomOpenings(ctx context.Context, r source.Reader, tx target.Tx, ids *remap.RoomIDs) (StepResult, error) {
	rows, err := r.RoomOpenings(ctx)
	if err != nil {
		return StepResult{}, err
	}
	sr := StepResult{Read: len(rows)}

	out := make([]model.RoomOpening, 0, len(rows))
	for _, l := range rows {
		newID, ok := ids.Get(l.RoomID)
		if !ok {
			sr.Dropped++
			continue
		}
		l.RoomID = newID
		out = append(out, l)
	}
	if len(out) == 0 {
		return sr, nil
	}
	sr.Written, err = tx.InsertRoomOpenings(ctx, out)
	return sr, err
}

func migrateSolarPanels(ctx context.Context, r source.Reader, tx target.Tx) (StepResult, error) {
	rows, err := r.SolarPanels(ctx)
	if err != nil {
		return StepResult{}, err
	}
	sr := StepResult{Read: len(rows)}
	if len(rows) == 0 {
		return sr, nil
	}
	sr.Written, err = tx.InsertSolarPanels(ctx, rows)
	return sr, err
}

func migrateUtilities(ctx context.Context, r source.Reader, tx target.Tx, c *normalize.Collector) (StepResult, error) {
	rows, err := r.Utilities(ctx)
	if err != nil {
		return StepResult{}, err
	}
	sr := StepResult{Read: len(rows)}

	out := make([]model.Utility, 0, len(rows))
	for _, u := range rows {
		kind, err := normalize.ParseUtilityKind(u.Type)
		if err := c.Add(err); err != nil {
			return sr, fmt.Errorf("utility %d: %w", u.ID, err)
		}
		out = append(out, model.Utility{
			ID:           u.ID,
			BuildingCode: u.BuildingCode,
			Kind:         kind,
			MeterCode:    u.MeterCode,
			MeterAddress: u.MeterAddress,
		})
	}
	if err := c.Err(); err != nil {
		return sr, err
	}
	if len(out) == 0 {
		return sr, nil
	}
	sr.Written, err = tx.InsertUtilities(ctx, out)
	return sr, err
}
