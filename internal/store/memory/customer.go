package memory

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

type customerRepo struct{ v *view }

func (r *customerRepo) FindByPhone(ctx context.Context, businessID, phone string) (*model.Customer, error) {
	var out *model.Customer
	r.v.read(func(st *state) {
		for _, c := range st.customers {
			if c.BusinessID == businessID && c.Phone == phone {
				out = &c
				return
			}
		}
	})
	return out, nil
}

func (r *customerRepo) GetByID(ctx context.Context, businessID string, id int64) (*model.Customer, error) {
	var out *model.Customer
	r.v.read(func(st *state) {
		if c, ok := st.customers[id]; ok && c.BusinessID == businessID {
			out = &c
		}
	})
	return out, nil
}

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.v.write(func(st *state) error {
		for _, existing := range st.customers {
			if existing.BusinessID == c.BusinessID && existing.Phone == c.Phone {
				return apperror.Conflict("customer with phone %s already exists", c.Phone)
			}
		}
		now := r.v.now()
		c.ID = st.nextID()
		c.CreatedAt, c.UpdatedAt = now, now
		st.customers[c.ID] = *c
		return nil
	})
}
