package services

import (
	"errors"
	"testing"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/pkg/utils"
)

func newProductFixture() (*fakeProductRepo, *fakeInventoryRepo, ProductService) {
	productRepo := newFakeProductRepo()
	inventoryRepo := newFakeInventoryRepo()
	svc := NewProductService(productRepo, inventoryRepo, utils.FixedClock{Time: testTime}, newStubDB())
	return productRepo, inventoryRepo, svc
}

func TestCreateProduct_WithRecipe(t *testing.T) {
	_, inventoryRepo, svc := newProductFixture()
	addStoreProduct(inventoryRepo, 1, "Flour", 100, 10)

	product, err := svc.CreateProduct(CreateProductRequest{
		Name:                "Burger",
		Price:               8.0,
		Stock:               5,
		PreparationLocation: string(models.PreparationKitchen),
		Ingredients: []ProductIngredientRequest{
			{StoreProductID: 1, QuantityPerUnit: 0.25},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !product.IsAvailable {
		t.Errorf("availability should default to true")
	}
	if len(product.Ingredients) != 1 || product.Ingredients[0].StoreProductID != 1 {
		t.Errorf("recipe not persisted: %+v", product.Ingredients)
	}
}

func TestCreateProduct_Failures(t *testing.T) {
	_, _, svc := newProductFixture()

	if _, err := svc.CreateProduct(CreateProductRequest{
		Name: "Burger", Price: 8.0, PreparationLocation: "garage",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad preparation location: got %v, want ErrValidation", err)
	}

	if _, err := svc.CreateProduct(CreateProductRequest{
		Name: "Burger", Price: 8.0, PreparationLocation: string(models.PreparationKitchen),
		Ingredients: []ProductIngredientRequest{{StoreProductID: 42, QuantityPerUnit: 1}},
	}); !errors.Is(err, ErrStoreProductNotFound) {
		t.Errorf("unknown store product: got %v, want ErrStoreProductNotFound", err)
	}
}

func TestUpdateProduct_RecipeHandling(t *testing.T) {
	productRepo, inventoryRepo, svc := newProductFixture()
	addStoreProduct(inventoryRepo, 1, "Flour", 100, 10)
	addStoreProduct(inventoryRepo, 2, "Cheese", 50, 5)
	productRepo.products[10] = &models.Product{
		ID: 10, Name: "Burger", Price: 8.0, IsAvailable: true, Stock: 5,
		PreparationLocation: models.PreparationKitchen,
		Ingredients: []models.ProductIngredient{
			{ID: 1, ProductID: 10, StoreProductID: 1, QuantityPerUnit: 0.25},
		},
	}

	// Nil ingredients pointer leaves the recipe alone.
	updated, err := svc.UpdateProduct(10, UpdateProductRequest{
		Name: "Cheeseburger", Price: 9.0, IsAvailable: true, Stock: 5,
		PreparationLocation: string(models.PreparationKitchen),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Cheeseburger" {
		t.Errorf("name not updated: %s", updated.Name)
	}
	if len(updated.Ingredients) != 1 {
		t.Errorf("recipe should be untouched, got %+v", updated.Ingredients)
	}

	// An explicit ingredients slice replaces the recipe.
	newRecipe := []ProductIngredientRequest{
		{StoreProductID: 1, QuantityPerUnit: 0.25},
		{StoreProductID: 2, QuantityPerUnit: 0.1},
	}
	updated, err = svc.UpdateProduct(10, UpdateProductRequest{
		Name: "Cheeseburger", Price: 9.0, IsAvailable: true, Stock: 5,
		PreparationLocation: string(models.PreparationKitchen),
		Ingredients:         &newRecipe,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Ingredients) != 2 {
		t.Errorf("recipe not replaced, got %+v", updated.Ingredients)
	}

	if _, err := svc.UpdateProduct(404, UpdateProductRequest{
		Name: "Ghost", Price: 1, PreparationLocation: string(models.PreparationBar),
	}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product: got %v, want ErrProductNotFound", err)
	}
}

func TestSetAvailability(t *testing.T) {
	productRepo, _, svc := newProductFixture()
	productRepo.products[10] = &models.Product{
		ID: 10, Name: "Burger", Price: 8.0, IsAvailable: true,
		PreparationLocation: models.PreparationKitchen,
	}

	product, err := svc.SetAvailability(10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.IsAvailable {
		t.Errorf("product should be unavailable")
	}

	if _, err := svc.SetAvailability(404, true); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product: got %v, want ErrProductNotFound", err)
	}
}
