package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	validate       *validator.Validate
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, validate *validator.Validate, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, validate: validate, logger: logger}
}

// listCatalog
//
//	@Summary		Каталог
//	@Description	Активные товары витрины.
//	@Tags			products
//	@Produce		json
//	@Success		200	{object}	ProductListResponse
//	@Router			/products [get]
func (p *ProductHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.listCatalog"

	products, err := p.productUsecase.ListCatalog(r.Context())
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductListResponse(products))
}

// listProducts
//
//	@Summary	Все товары
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Success	200	{object}	ProductListResponse
//	@Router		/admin/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.listProducts"

	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductListResponse(products))
}

// getProduct
//
//	@Summary	Товар
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductEnvelope
//	@Failure	404	{object}	ErrorResponse
//	@Router		/admin/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.getProduct"

	id, err := idParam(r)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &ProductEnvelope{Success: true, Product: newProductResponse(product)})
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Slug строится из названия, при совпадении добавляется числовой суффикс.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminToken
//	@Param			request	body		ProductRequest	true	"Данные товара, цена в рупиях"
//	@Success		201		{object}	ProductEnvelope
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/admin/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.createProduct"

	req, err := p.decodeProduct(w, r)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	logger.FromContext(r.Context(), p.logger).Infof("product %d created, slug=%s", product.ID, product.Slug)
	WriteSuccess(w, http.StatusCreated, &ProductEnvelope{Success: true, Product: newProductResponse(product)})
}

// updateProduct
//
//	@Summary		Обновление товара
//	@Description	Полная замена полей товара. Slug не меняется.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminToken
//	@Param			id		path		int				true	"ID товара"
//	@Param			request	body		ProductRequest	true	"Данные товара, цена в рупиях"
//	@Success		200		{object}	ProductEnvelope
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/admin/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.updateProduct"

	id, err := idParam(r)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	req, err := p.decodeProduct(w, r)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), id, req)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &ProductEnvelope{Success: true, Product: newProductResponse(product)})
}

// toggleProduct
//
//	@Summary	Включение и скрытие товара
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	AdminToken
//	@Param		id		path		int						true	"ID товара"
//	@Param		request	body		ToggleProductRequest	true	"Флаг активности"
//	@Success	200		{object}	SuccessResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/admin/products/{id}/toggle [patch]
func (p *ProductHandler) toggleProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.toggleProduct"

	id, err := idParam(r)
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	var req ToggleProductRequest
	if err := decodeJSON(w, r, p.validate, &req); err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	if err := p.productUsecase.SetProductActive(r.Context(), id, *req.IsActive); err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &SuccessResponse{Success: true})
}

// signUpload
//
//	@Summary		Ссылка для загрузки изображения
//	@Description	Выдаёт подписанный PUT URL объектного хранилища. Поддерживаются jpeg, png, webp.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminToken
//	@Param			request	body		SignUploadRequest	true	"Имя и тип файла"
//	@Success		200		{object}	SignUploadResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/admin/upload/sign [post]
func (p *ProductHandler) signUpload(w http.ResponseWriter, r *http.Request) {
	const op = "ProductHandler.signUpload"

	var req SignUploadRequest
	if err := decodeJSON(w, r, p.validate, &req); err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	upload, err := p.productUsecase.SignImageUpload(r.Context(), &usecase.SignUploadReq{
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &SignUploadResponse{
		UploadURL: upload.UploadURL,
		ObjectKey: upload.ObjectKey,
		PublicURL: upload.PublicURL,
		ExpiresAt: upload.ExpiresAt,
	})
}

func (p *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*usecase.ProductReq, error) {
	var req ProductRequest
	if err := decodeJSON(w, r, p.validate, &req); err != nil {
		return nil, err
	}
	return req.toUsecase()
}
