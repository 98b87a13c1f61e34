package validation

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nurpe/eforms/internal/model"
)

const dateLayout = "2006-01-02"

// Input is the typed form of one submitted payment order. The form tag is the
// field name used in requests and in FieldError.Field.
type Input struct {
	PayerName          string `form:"payerName" validate:"required"`
	PayerCUI           string `form:"payerCUI" validate:"required,cui"`
	PayerAddress       string `form:"payerAddress" validate:"required"`
	PayerPhone         string `form:"payerPhone" validate:"required"`
	BeneficiaryName    string `form:"beneficiaryName" validate:"required"`
	BeneficiaryCUI     string `form:"beneficiaryCUI" validate:"required,cui"`
	BeneficiaryAddress string `form:"beneficiaryAddress" validate:"required"`
	BeneficiaryAccount string `form:"beneficiaryAccount" validate:"required,iban_ro"`
	PaymentDate        string `form:"paymentDate" validate:"required,datetime=2006-01-02"`
	PaymentReference   string `form:"paymentReference"`
	PaymentPurpose     string `form:"paymentPurpose" validate:"required"`
	Currency           string `form:"currency" validate:"omitempty,iso4217"`
	BaseAmount         string `form:"baseAmount" validate:"required,positive_amount"`
	VATRate            string `form:"vatRate" validate:"omitempty,non_negative_amount"`
	TaxRate            string `form:"taxRate" validate:"omitempty,non_negative_amount"`
}

// InputFromMap reads the known fields from a raw key-value submission.
// Unknown keys, including client-computed amounts, are ignored.
func InputFromMap(fields map[string]string) Input {
	get := func(key string) string {
		return strings.TrimSpace(fields[key])
	}
	return Input{
		PayerName:          get("payerName"),
		PayerCUI:           get("payerCUI"),
		PayerAddress:       get("payerAddress"),
		PayerPhone:         get("payerPhone"),
		BeneficiaryName:    get("beneficiaryName"),
		BeneficiaryCUI:     get("beneficiaryCUI"),
		BeneficiaryAddress: get("beneficiaryAddress"),
		BeneficiaryAccount: get("beneficiaryAccount"),
		PaymentDate:        get("paymentDate"),
		PaymentReference:   get("paymentReference"),
		PaymentPurpose:     get("paymentPurpose"),
		Currency:           get("currency"),
		BaseAmount:         get("baseAmount"),
		VATRate:            get("vatRate"),
		TaxRate:            get("taxRate"),
	}
}

func (in Input) trimmed() Input {
	v := reflect.ValueOf(&in).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
	in.Currency = strings.ToUpper(in.Currency)
	return in
}

var reasons = map[string]string{
	"required":            ReasonRequired,
	"cui":                 ReasonInvalidCUI,
	"iban_ro":             ReasonInvalidIBAN,
	"datetime":            ReasonInvalidDate,
	"positive_amount":     ReasonNotPositive,
	"non_negative_amount": ReasonNegative,
	"iso4217":             ReasonCurrency,
}

// Profile selects which contact fields are mandatory.
type Profile string

const (
	// ProfileForm requires every field of the submission form.
	ProfileForm Profile = "form"
	// ProfileIngest accepts records without payer/beneficiary address and
	// phone, as posted by integrations that only carry identification data.
	ProfileIngest Profile = "ingest"
)

var optionalOnIngest = map[string]struct{}{
	"payerAddress":       {},
	"payerPhone":         {},
	"beneficiaryAddress": {},
}

func ParseProfile(raw string) (Profile, bool) {
	switch Profile(strings.ToLower(strings.TrimSpace(raw))) {
	case ProfileForm, "":
		return ProfileForm, true
	case ProfileIngest:
		return ProfileIngest, true
	default:
		return "", false
	}
}

type Options struct {
	Profile Profile
	Now     func() time.Time
	Intn    func(int) int
}

// Validator checks submitted payment orders and derives their computed fields.
// It holds no mutable state; the clock and random source only feed reference
// and id generation.
type Validator struct {
	validate *validator.Validate
	profile  Profile
	now      func() time.Time
	intn     func(int) int
}

// New returns a Validator. Zero options mean the form profile, time.Now and
// math/rand.
func New(opts Options) *Validator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	intn := opts.Intn
	if intn == nil {
		intn = rand.IntN
	}
	profile := opts.Profile
	if profile == "" {
		profile = ProfileForm
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("form"); name != "" {
			return name
		}
		return field.Name
	})
	_ = v.RegisterValidation("cui", func(fl validator.FieldLevel) bool {
		return ValidCUI(fl.Field().String())
	})
	_ = v.RegisterValidation("iban_ro", func(fl validator.FieldLevel) bool {
		return ValidIBAN(fl.Field().String())
	})
	_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		d, ok := parseAmount(fl.Field().String())
		return ok && d.IsPositive()
	})
	_ = v.RegisterValidation("non_negative_amount", func(fl validator.FieldLevel) bool {
		d, ok := parseAmount(fl.Field().String())
		return ok && !d.IsNegative()
	})

	return &Validator{validate: v, profile: profile, now: now, intn: intn}
}

// Check runs every field rule and returns all violations, one per field.
func (v *Validator) Check(in Input) Errors {
	in = in.trimmed()
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "form", Reason: err.Error()}}
	}

	var result Errors
	for _, fe := range fieldErrs {
		if _, optional := optionalOnIngest[fe.Field()]; optional && v.profile == ProfileIngest && fe.Tag() == "required" {
			continue
		}
		reason, ok := reasons[fe.Tag()]
		if !ok {
			reason = fe.Tag()
		}
		result = append(result, FieldError{Field: fe.Field(), Reason: reason})
	}
	return result
}

// Validate checks the input and, when every rule passes, returns a pending
// record with derived amounts, reference, id and timestamps. On failure the
// error is an Errors value.
func (v *Validator) Validate(in Input, files []model.Attachment) (*model.PaymentOrder, error) {
	in = in.trimmed()
	if errs := v.Check(in); len(errs) > 0 {
		return nil, errs
	}

	base, _ := parseAmount(in.BaseAmount)
	vatRate := parseRate(in.VATRate)
	taxRate := parseRate(in.TaxRate)
	amounts := ComputeAmounts(base, vatRate, taxRate)

	currency := in.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	now := v.now().UTC()
	reference := in.PaymentReference
	if reference == "" {
		reference = v.Reference(in.PayerCUI, in.PaymentDate)
	}
	if files == nil {
		files = []model.Attachment{}
	}

	return &model.PaymentOrder{
		ID:                 now.UnixMilli(),
		Reference:          reference,
		PaymentReference:   in.PaymentReference,
		PayerName:          in.PayerName,
		PayerCUI:           in.PayerCUI,
		PayerAddress:       in.PayerAddress,
		PayerPhone:         in.PayerPhone,
		BeneficiaryName:    in.BeneficiaryName,
		BeneficiaryCUI:     in.BeneficiaryCUI,
		BeneficiaryAddress: in.BeneficiaryAddress,
		BeneficiaryAccount: NormalizeIBAN(in.BeneficiaryAccount),
		PaymentDate:        in.PaymentDate,
		PaymentPurpose:     in.PaymentPurpose,
		Currency:           currency,
		BaseAmount:         base,
		VATRate:            vatRate,
		TaxRate:            taxRate,
		VATAmount:          amounts.VAT,
		TaxAmount:          amounts.Tax,
		TotalAmount:        amounts.Total,
		Status:             model.StatusPending,
		Files:              files,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Reference generates a fresh reference with a random 0..999 suffix.
func (v *Validator) Reference(payerCUI, paymentDate string) string {
	return Reference(payerCUI, paymentDate, v.now(), v.intn(referenceSuffixRange))
}
