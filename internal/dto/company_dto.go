package dto

// CompanyConfig is the issuer data the invoicing backend signs invoices with.
// Usuario and Password are the AFIP credentials; they may be empty while the
// backend runs against the homologation environment.
type CompanyConfig struct {
	CUIT         string `json:"cuit"`
	RazonSocial  string `json:"razonSocial"`
	PtoVenta     string `json:"ptoVenta"`
	Usuario      string `json:"usuario"`
	Password     string `json:"password"`
	Domicilio    string `json:"domicilio"`
	CondicionIVA string `json:"condicionIVA"`
}

// ActualizarEmpresaRequest replaces the issuer configuration. Testing defaults
// to the service's TESTING_MODE when omitted.
type ActualizarEmpresaRequest struct {
	CUIT         string `json:"cuit"`
	RazonSocial  string `json:"razonSocial"`
	PtoVenta     string `json:"ptoVenta"     validate:"omitempty,numeric,max=5"`
	Usuario      string `json:"usuario"`
	Password     string `json:"password"`
	Domicilio    string `json:"domicilio"`
	CondicionIVA string `json:"condicionIVA"`
	Testing      *bool  `json:"testing"`
}

// CompanyConfigUpdate is the PUT body sent to the invoicing backend.
type CompanyConfigUpdate struct {
	CompanyConfig
	Testing bool `json:"testing"`
}

// CompanyConfigResponse is the backend envelope for both GET and PUT.
type CompanyConfigResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Config  CompanyConfig `json:"config"`
}
