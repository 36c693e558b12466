// Package event translates between bus payloads and the relay's structured
// reports, commands and acknowledgements.
//
// All payloads are JSON objects with fixed field names. Decoders either
// return a fully populated value or an error wrapping ErrMalformedPayload;
// they never return a partially filled struct.
//
// Sensor report (device → relay, status/response and POST /notify):
//
//	{
//	  "esp_code": "ESP_12345678",
//	  "airTemp": 22.5, "airHumidity": 40, "soilMoisture": 30,
//	  "waterLevel": 80, "lightIntensity": 500,
//	  "minAirTemp": 18, "maxAirTemp": 30,
//	  "minAirHumidity": 30, "maxAirHumidity": 60,
//	  "minSoilMoisture": 25,
//	  "minLightIntensity": 200, "maxLightIntensity": 800,
//	  "isIrrigating": false,
//	  "request_id": "…"
//	}
//
// Command (relay → device, */request):
//
//	{"esp_code":"ESP_12345678","action":"start_irrigation","request_id":"…","timestamp":"…"}
//
// Acknowledgement (device → relay, irrigation/*/response):
//
//	{"esp_code":"ESP_12345678","success":true,"message":"…","request_id":"…"}
package event
