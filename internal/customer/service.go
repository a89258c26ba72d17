package customer

import (
	"context"
	"strings"
	"time"

	"salon/internal/apperr"
	"salon/internal/flow"
	"salon/internal/model"
	"salon/internal/store"
	"salon/internal/validate"
)

// Input is the add-customer form.
type Input struct {
	CustomerName string         `json:"customerName" validate:"notblank"`
	Age          int            `json:"age" validate:"gt=0"`
	Gender       string         `json:"gender"`
	Mobile       string         `json:"mobile"`
	Email        string         `json:"email" validate:"omitempty,email"`
	Address      string         `json:"address"`
	JoiningDate  model.DateOnly `json:"joiningDate"`
	ProfileImage string         `json:"profileImage" validate:"omitempty,url"`
}

// Patch is the edit-customer form; nil fields are left unchanged.
type Patch struct {
	CustomerName *string         `json:"customerName" validate:"omitnil,notblank"`
	Age          *int            `json:"age" validate:"omitnil,gt=0"`
	Gender       *string         `json:"gender"`
	Mobile       *string         `json:"mobile"`
	Email        *string         `json:"email"`
	Address      *string         `json:"address"`
	JoiningDate  *model.DateOnly `json:"joiningDate"`
	ProfileImage *string         `json:"profileImage"`
	// Version, when set, must match the stored version.
	Version int64 `json:"version"`
}

// Query selects the customer list. It is applied in memory today; the
// contract lets a backend push it down later.
type Query struct {
	Search string
	Sort   *SortDirection
}

// Service handles the customer screens.
type Service struct {
	repo *Repository
	col  *Collator
	loc  *time.Location
	now  func() time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, col *Collator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, col: col, loc: loc, now: time.Now}
}

// Create validates and stores a new customer. Nothing is written when
// validation fails.
func (s *Service) Create(ctx context.Context, in Input) (model.Customer, error) {
	var (
		gender model.Gender
		out    model.Customer
	)
	err := flow.New("add_customer").Run(ctx, func() error {
		if err := validate.Struct(in); err != nil {
			return err
		}
		var ok bool
		if gender, ok = model.ParseGender(in.Gender); !ok {
			return invalidGender()
		}
		return nil
	}, func(ctx context.Context) error {
		joined := in.JoiningDate
		if joined.IsZero() {
			joined = model.Today(s.now(), s.loc)
		}
		created, err := s.repo.Insert(ctx, model.Customer{
			CustomerName: strings.TrimSpace(in.CustomerName),
			Age:          in.Age,
			Gender:       gender,
			Mobile:       strings.TrimSpace(in.Mobile),
			Email:        strings.TrimSpace(in.Email),
			Address:      in.Address,
			JoiningDate:  joined,
			ProfileImage: in.ProfileImage,
		})
		out = created
		return err
	})
	return out, err
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id string) (model.Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns the customers matching q.
func (s *Service) List(ctx context.Context, q Query) ([]model.Customer, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return View{Search: q.Search, Sort: q.Sort}.Apply(all, s.col), nil
}

// Edit replaces the fields present in p. Attendance records keep the name
// they were recorded with.
func (s *Service) Edit(ctx context.Context, id string, p Patch) (model.Customer, error) {
	var fields store.Fields
	err := flow.New("edit_customer").Run(ctx, func() error {
		var err error
		fields, err = patchFields(p)
		return err
	}, func(ctx context.Context) error {
		if len(fields) == 0 {
			c, err := s.repo.Get(ctx, id)
			if err != nil {
				return err
			}
			return store.CheckVersion(store.Customers, id, c.Version, p.Version)
		}
		return s.repo.Update(ctx, id, fields, p.Version)
	})
	if err != nil {
		return model.Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

// SetProfileImage points the customer at an uploaded image.
func (s *Service) SetProfileImage(ctx context.Context, id, url string) (model.Customer, error) {
	return s.Edit(ctx, id, Patch{ProfileImage: &url})
}

// Delete removes a customer. Past attendance records are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return flow.New("delete_customer").Run(ctx, func() error {
		if strings.TrimSpace(id) == "" {
			return apperr.New(apperr.KindValidation, "Field 'id' is required")
		}
		return nil
	}, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

func patchFields(p Patch) (store.Fields, error) {
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	f := store.Fields{}
	if p.CustomerName != nil {
		f["customerName"] = strings.TrimSpace(*p.CustomerName)
	}
	if p.Age != nil {
		f["age"] = *p.Age
	}
	if p.Gender != nil {
		g, ok := model.ParseGender(*p.Gender)
		if !ok {
			return nil, invalidGender()
		}
		f["gender"] = string(g)
	}
	if p.Mobile != nil {
		f["mobile"] = strings.TrimSpace(*p.Mobile)
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email != "" {
			if err := validate.Var("email", email, "email"); err != nil {
				return nil, err
			}
		}
		f["email"] = email
	}
	if p.Address != nil {
		f["address"] = *p.Address
	}
	if p.JoiningDate != nil {
		if p.JoiningDate.IsZero() {
			return nil, apperr.New(apperr.KindValidation, "Field 'joiningDate' is required")
		}
		f["joiningDate"] = p.JoiningDate.String()
	}
	if p.ProfileImage != nil {
		if *p.ProfileImage != "" {
			if err := validate.Var("profileImage", *p.ProfileImage, "url"); err != nil {
				return nil, err
			}
		}
		f["profileImage"] = *p.ProfileImage
	}
	return f, nil
}

func invalidGender() error {
	return apperr.New(apperr.KindValidation, "Field 'gender' must be one of [unspecified male female other]")
}
