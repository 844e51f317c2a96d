package trace

import (
	"context"

	"github.com/roach88/lotetrace/internal/record"
)

// AttachInput records that inputID was consumed to make ownerID.
//
// The owner must exist. Its Inputs gain {inputID, inputName, inputCode} and
// it is written first. The input then gains a UsedBy entry holding the
// owner's current name and code; if the input does not exist it is created
// from inputName and inputCode. Repeated calls append again on both sides.
//
// The two writes are not atomic. When the second fails the owner keeps its
// new Inputs entry, the failure is logged and its error is returned.
func (s *Store) AttachInput(ctx context.Context, ownerID, inputID, inputName, inputCode string) error {
	const op = "attachInput"
	ownerKey, err := key(op, ownerID)
	if err != nil {
		return err
	}
	inputKey, err := key(op, inputID)
	if err != nil {
		return err
	}

	owner, found, err := s.load(ctx, op, ownerKey)
	if err != nil {
		return err
	}
	if !found {
		return notFound(op, ownerKey)
	}

	owner.Inputs = append(owner.Inputs, record.RelationRef{
		ID:                 inputKey,
		Name:               inputName,
		ClassificationCode: inputCode,
	})
	owner.CreatedOrUpdatedAt = s.now()
	if err := s.save(ctx, op, owner); err != nil {
		return err
	}
	s.observer.RelationWrite(SideOwner)

	if err := s.notifyUsedAsInput(ctx, op, inputKey, inputName, inputCode, owner.Ref()); err != nil {
		s.observer.PartialRelationFailure()
		s.logger.Error("input relation left without back reference",
			"op", op,
			"owner_id", ownerKey,
			"input_id", inputKey,
			"error", err,
		)
		return err
	}

	s.logger.Info("input attached", "op", op, "owner_id", ownerKey, "input_id", inputKey)
	return nil
}

// notifyUsedAsInput appends ownerRef to the UsedBy list of inputKey,
// creating the input from name and code when absent. An existing input keeps
// its own name and code.
func (s *Store) notifyUsedAsInput(ctx context.Context, op, inputKey, name, code string, ownerRef record.RelationRef) error {
	input, found, err := s.load(ctx, op, inputKey)
	if err != nil {
		return err
	}

	if !found {
		input = record.New(inputKey, name, code, s.now())
		s.logger.Debug("input created by back reference", "op", op, "input_id", inputKey, "owner_id", ownerRef.ID)
	} else {
		input.CreatedOrUpdatedAt = s.now()
	}
	input.UsedBy = append(input.UsedBy, ownerRef)

	if err := s.save(ctx, op, input); err != nil {
		return err
	}
	s.observer.RelationWrite(SideCounterpart)
	return nil
}
