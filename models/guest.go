package models

// DocType values accepted for guest identity documents.
const (
	DocDNI = "DNI"
	DocCEE = "CEE"
	DocRUC = "RUC"
)

// Guest is a person (DNI/CEE) or a company (RUC) attached to a reservation.
// Guests are stored embedded in their reservation, never on their own.
type Guest struct {
	// persona natural
	Nombres         string `json:"nombres,omitempty" bson:"nombres,omitempty"`
	ApellidoPaterno string `json:"apellidoPaterno,omitempty" bson:"apellidoPaterno,omitempty"`
	ApellidoMaterno string `json:"apellidoMaterno,omitempty" bson:"apellidoMaterno,omitempty"`

	// empresa
	RazonSocial string `json:"razonSocial,omitempty" bson:"razonSocial,omitempty"`
	Direccion   string `json:"direccion,omitempty" bson:"direccion,omitempty"`

	DocType     string `json:"docType" bson:"docType"`
	DocNumber   string `json:"docNumber" bson:"docNumber"`
	Nationality string `json:"nationality" bson:"nationality"`
}
