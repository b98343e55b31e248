package domain

// WorkOrderStatus is the lifecycle state of a work order.
type WorkOrderStatus string

const (
	WorkOrderPlanned   WorkOrderStatus = "Planejada"
	WorkOrderRunning   WorkOrderStatus = "Em Execução"
	WorkOrderCompleted WorkOrderStatus = "Concluída"
	WorkOrderFailed    WorkOrderStatus = "Falhou"
	WorkOrderCancelled WorkOrderStatus = "Cancelada"
)

// Open reports whether flight logs can still be submitted.
func (s WorkOrderStatus) Open() bool {
	return s == WorkOrderPlanned || s == WorkOrderRunning || s == WorkOrderFailed
}

// ApplicationStatus is the processing state of an application.
type ApplicationStatus string

const (
	ApplicationProcessing ApplicationStatus = "Processando"
	ApplicationCompleted  ApplicationStatus = "Concluído"
	ApplicationFailed     ApplicationStatus = "Erro no Processamento"
)

// LogSource tells how the flight track was submitted.
type LogSource string

const (
	SourceGPSLog   LogSource = "gps_log"
	SourceGeoJSON  LogSource = "geojson"
	SourcePolyline LogSource = "polyline"
)
