package service

import (
	"context"
	"fmt"
	"io"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

// UpdateExpenseInput replaces the expense with ID.
type UpdateExpenseInput struct {
	ID      string
	Payload dto.ExpensePayload
}

// UploadReceiptInput attaches a file to an expense.
type UploadReceiptInput struct {
	ExpenseID string
	FileName  string
	Content   io.Reader
}

// DeleteReceiptInput removes one receipt from an expense.
type DeleteReceiptInput struct {
	ExpenseID string
	ReceiptID string
}

// ExpenseService reads and writes expenses and their receipts.
type ExpenseService struct {
	*base

	Create        *query.Mutation[dto.ExpensePayload, entity.Expense]
	Update        *query.Mutation[UpdateExpenseInput, entity.Expense]
	Delete        *query.Mutation[string, struct{}]
	UploadReceipt *query.Mutation[UploadReceiptInput, entity.ExpenseReceipt]
	DeleteReceipt *query.Mutation[DeleteReceiptInput, struct{}]
}

func newExpenseService(b *base) *ExpenseService {
	s := &ExpenseService{base: b}

	s.Create = query.NewMutation(b.cache, "expenses.create", s.create,
		func(_ context.Context, _ dto.ExpensePayload, e entity.Expense) {
			b.cache.Invalidate(allExpenses)
			if e.ID != "" {
				query.SetData(b.cache, ExpenseKey(e.ID), e)
			}
		})
	s.Update = query.NewMutation(b.cache, "expenses.update", s.update,
		func(_ context.Context, in UpdateExpenseInput, e entity.Expense) {
			b.cache.Invalidate(ExpenseKey(in.ID), allExpenses)
			query.SetData(b.cache, ExpenseKey(e.ID), e)
		})
	s.Delete = query.NewMutation(b.cache, "expenses.delete", s.delete,
		func(_ context.Context, id string, _ struct{}) {
			b.cache.Invalidate(allExpenses)
			b.cache.Remove(ExpenseKey(id))
		})
	s.UploadReceipt = query.NewMutation(b.cache, "expenses.uploadReceipt", s.uploadReceipt,
		func(_ context.Context, in UploadReceiptInput, _ entity.ExpenseReceipt) {
			b.cache.Invalidate(ExpenseKey(in.ExpenseID), allExpenses)
		})
	s.DeleteReceipt = query.NewMutation(b.cache, "expenses.deleteReceipt", s.deleteReceipt,
		func(_ context.Context, in DeleteReceiptInput, _ struct{}) {
			b.cache.Invalidate(ExpenseKey(in.ExpenseID), allExpenses)
		})
	return s
}

// List returns expenses matching q.
func (s *ExpenseService) List(ctx context.Context, q ExpenseQuery) query.State[[]entity.Expense] {
	return query.Fetch(ctx, s.cache, ExpensesKey(q), func(ctx context.Context) ([]entity.Expense, error) {
		body, err := s.get(ctx, "expenses", q.query())
		if err != nil {
			return nil, fmt.Errorf("fetch expenses: %w", err)
		}
		return s.mapper.Expenses(body), nil
	})
}

// Get returns one expense.
func (s *ExpenseService) Get(ctx context.Context, id string) query.State[entity.Expense] {
	seg, err := segment(id)
	if err != nil {
		return query.State[entity.Expense]{Status: query.StatusError, Err: err}
	}
	return query.Fetch(ctx, s.cache, ExpenseKey(id), func(ctx context.Context) (entity.Expense, error) {
		body, err := s.get(ctx, "expenses/"+seg, nil)
		if err != nil {
			return entity.Expense{}, fmt.Errorf("fetch expense %s: %w", id, err)
		}
		return s.decodeExpense(body), nil
	})
}

func (s *ExpenseService) decodeExpense(body []byte) entity.Expense {
	d := mapper.DecodeObject[dto.ExpenseDTO](body)
	return s.mapper.Expense(&d)
}

func (s *ExpenseService) create(ctx context.Context, payload dto.ExpensePayload) (entity.Expense, error) {
	resp, err := s.send(ctx, "POST", "expenses", payload)
	if err != nil {
		return entity.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return s.decodeExpense(resp.Body), nil
}

func (s *ExpenseService) update(ctx context.Context, in UpdateExpenseInput) (entity.Expense, error) {
	seg, err := segment(in.ID)
	if err != nil {
		return entity.Expense{}, err
	}
	resp, err := s.send(ctx, "PUT", "expenses/"+seg, in.Payload)
	if err != nil {
		return entity.Expense{}, fmt.Errorf("update expense %s: %w", in.ID, err)
	}
	e := s.decodeExpense(resp.Body)
	if e.ID == "" {
		e.ID = in.ID
	}
	return e, nil
}

func (s *ExpenseService) delete(ctx context.Context, id string) (struct{}, error) {
	seg, err := segment(id)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "DELETE", "expenses/"+seg, nil); err != nil {
		return struct{}{}, fmt.Errorf("delete expense %s: %w", id, err)
	}
	return struct{}{}, nil
}

func (s *ExpenseService) uploadReceipt(ctx context.Context, in UploadReceiptInput) (entity.ExpenseReceipt, error) {
	seg, err := segment(in.ExpenseID)
	if err != nil {
		return entity.ExpenseReceipt{}, err
	}
	if in.Content == nil {
		return entity.ExpenseReceipt{}, fmt.Errorf("receipt %q has no content", in.FileName)
	}
	resp, err := s.api.Do(ctx, port.Request{
		Method: "POST",
		Path:   "expenses/" + seg + "/receipts",
		Files:  []port.FilePart{{FieldName: "file", FileName: in.FileName, Content: in.Content}},
	})
	if err != nil {
		return entity.ExpenseReceipt{}, fmt.Errorf("upload receipt for expense %s: %w", in.ExpenseID, err)
	}
	d := mapper.DecodeObject[dto.ExpenseReceiptDTO](resp.Body)
	if d.Name == "" {
		d.Name = in.FileName
	}
	return s.mapper.ExpenseReceipt(&d), nil
}

func (s *ExpenseService) deleteReceipt(ctx context.Context, in DeleteReceiptInput) (struct{}, error) {
	// The expense id only scopes invalidation; receipts are addressed by their own id.
	if _, err := segment(in.ExpenseID); err != nil {
		return struct{}{}, err
	}
	receipt, err := segment(in.ReceiptID)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "DELETE", "receipts/"+receipt, nil); err != nil {
		return struct{}{}, fmt.Errorf("delete receipt %s: %w", in.ReceiptID, err)
	}
	return struct{}{}, nil
}
