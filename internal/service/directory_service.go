package service

import (
	"errors"
	"strings"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/pkg/validator"

	"github.com/google/uuid"
)

var ErrBranchNameTaken = errors.New("branch name already in use")

// DirectoryService manages the reference entities the POS flows hang off:
// branches, suppliers and the customer book.
type DirectoryService interface {
	CreateBranch(req *BranchRequest, userName string) (*model.Branch, error)
	UpdateBranch(id uuid.UUID, req *BranchRequest, userName string) (*model.Branch, error)
	GetBranches() ([]model.Branch, error)
	GetBranch(id uuid.UUID) (*model.Branch, error)

	CreateSupplier(req *SupplierRequest, userName string) (*model.Supplier, error)
	UpdateSupplier(id uuid.UUID, req *SupplierRequest, userName string) (*model.Supplier, error)
	GetSuppliers() ([]model.Supplier, error)

	GetCustomers() ([]model.Customer, error)
	GetCustomer(id uuid.UUID) (*model.Customer, error)
}

type BranchRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type SupplierRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
}

type directoryService struct {
	branchRepo   repository.BranchRepository
	supplierRepo repository.SupplierRepository
	customerRepo repository.CustomerRepository
}

func NewDirectoryService(
	branchRepo repository.BranchRepository,
	supplierRepo repository.SupplierRepository,
	customerRepo repository.CustomerRepository,
) DirectoryService {
	return &directoryService{
		branchRepo:   branchRepo,
		supplierRepo: supplierRepo,
		customerRepo: customerRepo,
	}
}

func (s *directoryService) CreateBranch(req *BranchRequest, userName string) (*model.Branch, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if existing, err := s.branchRepo.FindByName(name); err == nil && existing != nil {
		return nil, ErrBranchNameTaken
	}

	branch := &model.Branch{
		Name:    name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	branch.CreatedBy = userName
	branch.UpdatedBy = userName
	if err := s.branchRepo.Create(branch); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *directoryService) UpdateBranch(id uuid.UUID, req *BranchRequest, userName string) (*model.Branch, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if existing, err := s.branchRepo.FindByName(name); err == nil && existing.ID != id {
		return nil, ErrBranchNameTaken
	}

	branch.Name = name
	branch.Address = req.Address
	branch.Phone = req.Phone
	branch.UpdatedBy = userName
	if err := s.branchRepo.Update(branch); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *directoryService) GetBranches() ([]model.Branch, error) {
	return s.branchRepo.FindAll()
}

func (s *directoryService) GetBranch(id uuid.UUID) (*model.Branch, error) {
	branch, err := s.branchRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, err
	}
	return branch, nil
}

func (s *directoryService) CreateSupplier(req *SupplierRequest, userName string) (*model.Supplier, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:    strings.TrimSpace(req.Name),
		Contact: req.Contact,
	}
	supplier.CreatedBy = userName
	supplier.UpdatedBy = userName
	if err := s.supplierRepo.Create(supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *directoryService) UpdateSupplier(id uuid.UUID, req *SupplierRequest, userName string) (*model.Supplier, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	supplier, err := s.supplierRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("supplier not found")
		}
		return nil, err
	}

	supplier.Name = strings.TrimSpace(req.Name)
	supplier.Contact = req.Contact
	supplier.UpdatedBy = userName
	if err := s.supplierRepo.Update(supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *directoryService) GetSuppliers() ([]model.Supplier, error) {
	return s.supplierRepo.FindAll()
}

func (s *directoryService) GetCustomers() ([]model.Customer, error) {
	return s.customerRepo.FindAll()
}

func (s *directoryService) GetCustomer(id uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("customer not found")
		}
		return nil, err
	}
	return customer, nil
}
